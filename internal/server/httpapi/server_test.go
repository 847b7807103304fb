package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/users"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m, goleak.IgnoreCurrent())
}

type testEnv struct {
	server  *Server
	issuer  *auth.Issuer
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	m := metrics.New()
	hasher, err := auth.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	issuer, err := auth.NewIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	svc, err := users.NewService(users.NewInMemoryRepository(), metrics.InstrumentHasher(hasher, m), issuer)
	require.NoError(t, err)

	return &testEnv{
		server:  NewServer("127.0.0.1:0", time.Second, logging.NewNop(), svc, issuer, m),
		issuer:  issuer,
		metrics: m,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		for _, vv := range v {
			req.Header.Add(k, vv)
		}
	}

	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestSignup(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/signup", SignupRequest{Name: "Ann", Email: "ann@example.com", Password: "secret"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, Response{Success: true, Message: "Signup successful!"}, decode[Response](t, rec))

	rec = env.do(t, http.MethodPost, "/signup", SignupRequest{Name: "Other", Email: "ann@example.com", Password: "other"}, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, Response{Success: false, Message: "Email already exists"}, decode[Response](t, rec))

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.AuthRequests.WithLabelValues(metrics.OpSignup, metrics.OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.AuthRequests.WithLabelValues(metrics.OpSignup, metrics.OutcomeAlreadyExists)))
}

func TestSignup_BadRequest(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body any
	}{
		{"malformed json", `{"email":`},
		{"missing password", SignupRequest{Name: "Ann", Email: "ann@example.com"}},
		{"missing name", SignupRequest{Email: "ann@example.com", Password: "x"}},
		{"bad email", SignupRequest{Name: "Ann", Email: "not-an-email", Password: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/signup", tt.body, nil)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.False(t, decode[Response](t, rec).Success)
		})
	}
}

func TestSignup_TrimsPaddedEmail(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/signup", SignupRequest{Name: "Ann", Email: "  ann@example.com ", Password: "secret"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/login", LoginRequest{Email: "ann@example.com", Password: "secret"}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/signup", SignupRequest{Name: "Ann", Email: "ann@example.com", Password: "x"}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSignup_ServiceValidation(t *testing.T) {
	env := newTestEnv(t)

	long := string(bytes.Repeat([]byte("a"), auth.MaxPasswordBytes+1))
	rec := env.do(t, http.MethodPost, "/signup", SignupRequest{Name: "Ann", Email: "ann@example.com", Password: long}, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, decode[Response](t, rec).Success)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/signup",
		SignupRequest{Name: "Ann", Email: "ann@example.com", Password: "secret"}, nil).Code)

	rec := env.do(t, http.MethodPost, "/login", LoginRequest{Email: "ann@example.com", Password: "secret"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[Response](t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "Login successful!", resp.Message)
	require.NotEmpty(t, resp.Token)

	claims, err := env.issuer.Parse(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", claims.Email)
	assert.Equal(t, "Ann", claims.Name)
	assert.Equal(t, claims.ExpiresAt.Unix(), resp.ExpiresAt)
	assert.Equal(t, time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestLogin_InvalidCredentialsLookAlike(t *testing.T) {
	env := newTestEnv(t)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/signup",
		SignupRequest{Name: "Ann", Email: "ann@example.com", Password: "secret"}, nil).Code)

	wrong := env.do(t, http.MethodPost, "/login", LoginRequest{Email: "ann@example.com", Password: "nope"}, nil)
	unknown := env.do(t, http.MethodPost, "/login", LoginRequest{Email: "bob@example.com", Password: "secret"}, nil)

	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())
	assert.Equal(t, "Invalid email or password", decode[Response](t, wrong).Message)

	assert.Equal(t, 2.0, testutil.ToFloat64(env.metrics.AuthRequests.WithLabelValues(metrics.OpLogin, metrics.OutcomeInvalidCredentials)))
}

func TestLogin_BadRequest(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/login", `{"email":`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_EmptyFieldsAreInvalidCredentials(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body any
	}{
		{"empty email", `{"email":"","password":"secret"}`},
		{"missing password", `{"email":"ann@example.com"}`},
		{"empty object", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/login", tt.body, nil)
			require.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, Response{Success: false, Message: "Invalid email or password"}, decode[Response](t, rec))
		})
	}
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)

	token, err := env.issuer.Issue("ann@example.com", "Ann")
	require.NoError(t, err)

	rec := env.do(t, http.MethodGet, "/me", nil, http.Header{"Authorization": {"Bearer " + token.Token}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, MeResponse{
		Email:     "ann@example.com",
		Name:      "Ann",
		ExpiresAt: token.ExpiresAt().Unix(),
	}, decode[MeResponse](t, rec))
}

func TestMe_RejectsBadTokens(t *testing.T) {
	env := newTestEnv(t)

	other, err := auth.NewIssuer("another-secret", time.Hour)
	require.NoError(t, err)
	foreign, err := other.Issue("ann@example.com", "Ann")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header http.Header
	}{
		{"no header", nil},
		{"not bearer", http.Header{"Authorization": {"Basic abc"}}},
		{"garbage", http.Header{"Authorization": {"Bearer not.a.jwt"}}},
		{"wrong secret", http.Header{"Authorization": {"Bearer " + foreign.Token}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/me", nil, tt.header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodOptions, "/signup", nil, http.Header{
		"Origin":                         {"https://example.org"},
		"Access-Control-Request-Method":  {http.MethodPost},
		"Access-Control-Request-Headers": {"Content-Type"},
	})

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestCORS_SimpleRequest(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", nil, http.Header{"Origin": {"https://anywhere.test"}})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestID(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", nil, nil)
	_, err := uuid.Parse(rec.Header().Get(requestIDHeader))
	assert.NoError(t, err)

	id := uuid.NewString()
	rec = env.do(t, http.MethodGet, "/health", nil, http.Header{requestIDHeader: {id}})
	assert.Equal(t, id, rec.Header().Get(requestIDHeader))

	id = uuid.NewString()
	rec = env.do(t, http.MethodGet, "/health", nil, http.Header{"x-request-id": {id}})
	assert.Equal(t, id, rec.Header().Get(requestIDHeader))

	rec = env.do(t, http.MethodGet, "/health", nil, http.Header{requestIDHeader: {"<script>"}})
	assert.NotEqual(t, "<script>", rec.Header().Get(requestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/login", LoginRequest{Email: "x@example.com", Password: "y"}, nil)

	rec := env.do(t, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `gophauth_auth_requests_total{operation="login",outcome="invalid_credentials"} 1`)
	assert.Contains(t, rec.Body.String(), "gophauth_password_hash_seconds")
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	env := newTestEnv(t)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.server.Serve(ctx, lis) }()

	url := "http://" + lis.Addr().String() + "/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}

	http.DefaultClient.CloseIdleConnections()
}
