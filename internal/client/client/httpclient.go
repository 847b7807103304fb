package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/netx"
)

type httpResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

type httpIdentity struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	ExpiresAt int64  `json:"expires_at"`
}

// HTTPClient talks to the JSON endpoints (/signup, /login, /me).
type HTTPClient struct {
	baseURL     string
	http        *http.Client
	accessToken string
}

// NewHTTPAuthClient returns a client for the server at baseURL, for example
// "http://127.0.0.1:8080". A nil hc uses http.DefaultClient.
func NewHTTPAuthClient(baseURL string, hc *http.Client) *HTTPClient {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &HTTPClient{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

func (s *HTTPClient) SetAccessToken(token string) {
	s.accessToken = token
}

func (s *HTTPClient) Signup(ctx context.Context, name, email, password string) error {
	in := map[string]string{"name": name, "email": email, "password": password}

	if err := netx.DoJSON(ctx, s.http, http.MethodPost, s.baseURL+"/signup", "", in, nil); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *HTTPClient) Login(ctx context.Context, email, password string) (*Session, error) {
	in := map[string]string{"email": email, "password": password}

	var out httpResponse
	if err := netx.DoJSON(ctx, s.http, http.MethodPost, s.baseURL+"/login", "", in, &out); err != nil {
		return nil, s.mapError(err)
	}

	s.accessToken = out.Token
	return &Session{Token: out.Token, ExpiresAt: time.Unix(out.ExpiresAt, 0)}, nil
}

func (s *HTTPClient) Me(ctx context.Context) (*Identity, error) {
	var out httpIdentity
	if err := netx.DoJSON(ctx, s.http, http.MethodGet, s.baseURL+"/me", s.accessToken, nil, &out); err != nil {
		return nil, s.mapError(err)
	}
	return &Identity{Email: out.Email, Name: out.Name, ExpiresAt: time.Unix(out.ExpiresAt, 0)}, nil
}

func (s *HTTPClient) Close() error {
	s.http.CloseIdleConnections()
	return nil
}

func (s *HTTPClient) mapError(err error) error {
	var se *netx.StatusError
	if !errors.As(err, &se) {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrUnavailable
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var body httpResponse
	_ = json.Unmarshal(se.Body, &body)

	switch se.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, body.Message)
	case http.StatusConflict:
		return ErrAlreadyExists
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrInvalidInput, body.Message)
	case http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return ErrUnavailable
	default:
		return fmt.Errorf("http error: %w", err)
	}
}
