package authclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI serves the authentication endpoints with canned responses and
// records the last request.
type fakeAPI struct {
	lastAuth   string
	lastPath   string
	lastMethod string
	lastBody   map[string]string
	handler    func(w http.ResponseWriter, r *http.Request)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"message": message,
		"error":   map[string]string{"code": code, "message": message},
	})
}

func newFakeServer(t *testing.T, api *fakeAPI) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.lastAuth = r.Header.Get("Authorization")
		api.lastPath = r.URL.EscapedPath()
		api.lastMethod = r.Method
		api.lastBody = nil
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&api.lastBody)
		}
		api.handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := New(srv.URL, WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c
}

func sessionResponse(token string) map[string]interface{} {
	return map[string]interface{}{
		"success": true,
		"token":   token,
		"user":    map[string]string{"id": "u-1", "name": "Ann", "email": "ann@x.com"},
	}
}

func TestNew_InvalidBaseURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:5000", "://bad"} {
		_, err := New(raw)
		assert.Error(t, err, raw)
	}
}

func TestClient_LoginStoresTokenAndSendsBearer(t *testing.T) {
	api := &fakeAPI{}
	api.handler = func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case pathLogin:
			writeJSON(w, http.StatusOK, sessionResponse("tok-1"))
		case pathMe:
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"success": true,
				"data":    map[string]string{"id": "u-1", "name": "Ann", "email": "ann@x.com"},
			})
		}
	}
	srv := newFakeServer(t, api)
	c := newTestClient(t, srv)

	result, err := c.Login(context.Background(), "ann@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", result.Token)
	assert.Equal(t, User{ID: "u-1", Name: "Ann", Email: "ann@x.com"}, result.User)
	assert.Equal(t, map[string]string{"email": "ann@x.com", "password": "secret1"}, api.lastBody)
	assert.Equal(t, "tok-1", c.Token())

	user, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ann", user.Name)
	assert.Equal(t, "Bearer tok-1", api.lastAuth)
}

func TestClient_APIError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		respond     func(w http.ResponseWriter)
		wantMessage string
		wantCode    string
	}{
		{
			name:   "envelope message",
			status: http.StatusUnauthorized,
			respond: func(w http.ResponseWriter) {
				writeError(w, http.StatusUnauthorized, "invalid_credentials", "The email or password you entered is incorrect")
			},
			wantMessage: "The email or password you entered is incorrect",
			wantCode:    "invalid_credentials",
		},
		{
			name:   "non json body falls back to status text",
			status: http.StatusBadGateway,
			respond: func(w http.ResponseWriter) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte("<html>bad gateway</html>"))
			},
			wantMessage: http.StatusText(http.StatusBadGateway),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{handler: func(w http.ResponseWriter, r *http.Request) { tt.respond(w) }}
			c := newTestClient(t, newFakeServer(t, api))

			_, err := c.Login(context.Background(), "ann@x.com", "wrong")

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.False(t, IsNetworkError(err))
			assert.Empty(t, c.Token())
		})
	}
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url)
	require.NoError(t, err)

	_, err = c.Me(context.Background())
	assert.True(t, IsNetworkError(err))
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestClient_LogoutClearsTokenEvenOnFailure(t *testing.T) {
	api := &fakeAPI{handler: func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusInternalServerError, "internal_error", "An internal server error occurred")
	}}
	c := newTestClient(t, newFakeServer(t, api))
	require.NoError(t, c.tokens.Save("tok-1"))

	err := c.Logout(context.Background())

	assert.Error(t, err)
	assert.Equal(t, http.MethodGet, api.lastMethod)
	assert.Equal(t, pathLogout, api.lastPath)
	assert.Equal(t, "Bearer tok-1", api.lastAuth)
	assert.Empty(t, c.Token())
}

func TestClient_PasswordResetFlow(t *testing.T) {
	api := &fakeAPI{}
	api.handler = func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == pathForgotPassword:
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Email sent"})
		case r.Method == http.MethodPut:
			writeJSON(w, http.StatusOK, sessionResponse("tok-reset"))
		case r.URL.Path == pathDirectReset:
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"success": true,
				"message": "Password reset successful",
				"user":    map[string]string{"id": "u-1", "name": "Ann", "email": "ann@x.com"},
			})
		case r.URL.Path == pathCheckUser:
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "exists": true})
		}
	}
	c := newTestClient(t, newFakeServer(t, api))
	ctx := context.Background()

	msg, err := c.ForgotPassword(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Email sent", msg)

	result, err := c.ResetPassword(ctx, "abc123", "newpass1")
	require.NoError(t, err)
	assert.Equal(t, pathResetPassword+"abc123", api.lastPath)
	assert.Equal(t, map[string]string{"password": "newpass1"}, api.lastBody)
	assert.Equal(t, "tok-reset", result.Token)
	assert.Equal(t, "tok-reset", c.Token())

	user, err := c.DirectResetPassword(ctx, "ann@x.com", "abc123", "newpass2")
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)
	assert.Equal(t, map[string]string{"email": "ann@x.com", "token": "abc123", "password": "newpass2"}, api.lastBody)

	exists, err := c.CheckUser(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestClient_RegisterUsesCookieJar(t *testing.T) {
	api := &fakeAPI{}
	var sawCookie bool
	api.handler = func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case pathRegister:
			http.SetCookie(w, &http.Cookie{Name: "token", Value: "tok-cookie", Path: "/", HttpOnly: true})
			writeJSON(w, http.StatusCreated, sessionResponse("tok-cookie"))
		case pathMe:
			_, err := r.Cookie("token")
			sawCookie = err == nil
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": map[string]string{"id": "u-1"}})
		}
	}
	srv := newFakeServer(t, api)

	c, err := New(srv.URL)
	require.NoError(t, err)

	_, err = c.Register(context.Background(), "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)
	_, err = c.Me(context.Background())
	require.NoError(t, err)

	assert.True(t, sawCookie)
	c.httpClient.CloseIdleConnections()
}
