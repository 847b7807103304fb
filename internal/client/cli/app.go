package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/buildinfo"
	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
)

// ErrUsage is returned for an unknown or missing command.
var ErrUsage = errors.New("usage: gophauth-client [-a addr|url] [-r timeout] [-t token] signup|login|me|version")

// AuthAPI is implemented by client.GRPCClient and client.HTTPClient.
type AuthAPI interface {
	Signup(ctx context.Context, name, email, password string) error
	Login(ctx context.Context, email, password string) (*client.Session, error)
	Me(ctx context.Context) (*client.Identity, error)
	SetAccessToken(token string)
	Close() error
}

type App struct {
	config *config.Config
	api    AuthAPI
	reader *bufio.Reader
	out    io.Writer
}

// NewApp picks the transport from the endpoint: an http:// or https:// URL
// selects the JSON API, anything else is dialled as a gRPC target.
func NewApp(c *config.Config) (*App, error) {
	api, err := newAPI(c.ServerEndpointAddr)
	if err != nil {
		return nil, err
	}

	return newApp(c, api, os.Stdin, os.Stdout), nil
}

func newAPI(endpoint string) (AuthAPI, error) {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return client.NewHTTPAuthClient(endpoint, nil), nil
	}
	return client.NewAuthClient(endpoint)
}

func newApp(c *config.Config, api AuthAPI, in io.Reader, out io.Writer) *App {
	return &App{config: c, api: api, reader: bufio.NewReader(in), out: out}
}

// Run executes the command in args and closes the connection.
func (a *App) Run(ctx context.Context, args []string) error {
	defer a.api.Close()

	if len(args) == 0 {
		return ErrUsage
	}

	switch args[0] {
	case "signup", "register":
		return a.Signup(ctx)
	case "login":
		return a.Login(ctx)
	case "me", "whoami":
		return a.Me(ctx)
	case "version":
		buildinfo.PrintBuildData(a.out)
		return nil
	case "help":
		fmt.Fprintln(a.out, ErrUsage.Error())
		return nil
	default:
		return fmt.Errorf("unknown command %q: %w", args[0], ErrUsage)
	}
}

// requestCtx bounds a single server call by the configured timeout.
func (a *App) requestCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config.RequestTimeout > 0 {
		return context.WithTimeout(ctx, a.config.RequestTimeout)
	}
	return context.WithCancel(ctx)
}
