package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/httpapi"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/users"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newHTTPServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hasher, err := auth.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	issuer, err := auth.NewIssuer("http-secret", time.Hour)
	require.NoError(t, err)
	svc, err := users.NewService(users.NewInMemoryRepository(), hasher, issuer)
	require.NoError(t, err)

	srv := httpapi.NewServer("", time.Second, logging.NewNop(), svc, issuer, metrics.New())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestHTTPClient_Flow(t *testing.T) {
	ts := newHTTPServer(t)
	c := NewHTTPAuthClient(ts.URL+"/", ts.Client())
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Signup(ctx, "Ann", "ann@example.com", "secret"))
	assert.ErrorIs(t, c.Signup(ctx, "Ann", "ann@example.com", "secret"), ErrAlreadyExists)
	assert.ErrorIs(t, c.Signup(ctx, "Ann", "not-an-email", "secret"), ErrInvalidInput)

	_, err := c.Login(ctx, "ann@example.com", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = c.Me(ctx)
	assert.ErrorIs(t, err, ErrUnauthorized)

	sess, err := c.Login(ctx, "ann@example.com", "secret")
	require.NoError(t, err)
	require.NotEmpty(t, sess.Token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), sess.ExpiresAt, 5*time.Second)

	id, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", id.Email)
	assert.Equal(t, "Ann", id.Name)
	assert.True(t, sess.ExpiresAt.Equal(id.ExpiresAt))
}

func TestHTTPClient_PresetToken(t *testing.T) {
	ts := newHTTPServer(t)
	c := NewHTTPAuthClient(ts.URL, ts.Client())

	c.SetAccessToken("garbage")
	_, err := c.Me(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestHTTPClient_Unavailable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c := NewHTTPAuthClient(url, nil)
	err := c.Signup(context.Background(), "n", "e@example.com", "p")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestHTTPClient_OtherStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer ts.Close()

	c := NewHTTPAuthClient(ts.URL, ts.Client())
	_, err := c.Login(context.Background(), "e", "p")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
	assert.NotErrorIs(t, err, ErrUnavailable)
}
