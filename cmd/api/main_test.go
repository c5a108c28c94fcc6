package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeCommand(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()

	previous := stdin
	stdin = strings.NewReader(input)
	t.Cleanup(func() { stdin = previous })

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := NewRootCmd()

	names := map[string]*cobra.Command{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = sub
	}
	for _, want := range []string{"serve", "migrate", "version", "client"} {
		assert.Contains(t, names, want)
	}

	var migrateSubs []string
	for _, sub := range names["migrate"].Commands() {
		migrateSubs = append(migrateSubs, sub.Name())
	}
	assert.ElementsMatch(t, []string{"up", "down", "status", "version"}, migrateSubs)

	flag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, "./configs/config.yaml", flag.DefValue)
}

func TestVersionCmd(t *testing.T) {
	out, err := executeCommand(t, "", "version")

	require.NoError(t, err)
	assert.Contains(t, out, "Version: dev")
	assert.Contains(t, out, "Commit: none")
}

// newAuthServer fakes the API endpoints the client commands use.
func newAuthServer(t *testing.T) (*httptest.Server, *string) {
	t.Helper()
	var lastPassword string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")

		user := map[string]string{"id": "u-1", "name": "Ann", "email": "ann@x.com"}
		switch r.URL.Path {
		case "/api/auth/login":
			lastPassword = body["password"]
			if body["password"] != "secret1" {
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"success": false,
					"message": "The email or password you entered is incorrect",
				})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "token": "tok-1", "user": user})
		case "/api/auth/me":
			if r.Header.Get("Authorization") != "Bearer tok-1" {
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": "Not authorized to access this route"})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "data": user})
		case "/api/auth/logout":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "message": "User logged out successfully"})
		case "/api/auth/check-user":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "exists": body["email"] == "ann@x.com"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &lastPassword
}

func TestClientCmd_LoginMeLogout(t *testing.T) {
	srv, lastPassword := newAuthServer(t)
	tokenFile := filepath.Join(t.TempDir(), "token")
	common := []string{"--url", srv.URL, "--token-file", tokenFile}

	out, err := executeCommand(t, "", append([]string{"client", "me"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Not signed in")

	out, err = executeCommand(t, "secret1\n", append([]string{"client", "login", "--email", "ann@x.com"}, common...)...)
	require.NoError(t, err)
	assert.Equal(t, "secret1", *lastPassword)
	assert.Contains(t, out, "Signed in")

	stored, err := os.ReadFile(tokenFile)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", string(stored))

	out, err = executeCommand(t, "", append([]string{"client", "me"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "name:  Ann")

	out, err = executeCommand(t, "", append([]string{"client", "logout"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out")
	_, err = os.Stat(tokenFile)
	assert.True(t, os.IsNotExist(err))
}

func TestClientCmd_LoginFailureShowsServerMessage(t *testing.T) {
	srv, _ := newAuthServer(t)
	tokenFile := filepath.Join(t.TempDir(), "token")

	_, err := executeCommand(t, "wrong\n", "client", "login", "--email", "ann@x.com", "--url", srv.URL, "--token-file", tokenFile)

	require.Error(t, err)
	assert.Equal(t, "The email or password you entered is incorrect", err.Error())
}

func TestClientCmd_RequiredFlags(t *testing.T) {
	_, err := executeCommand(t, "", "client", "login", "--token-file", filepath.Join(t.TempDir(), "token"))
	require.Error(t, err)
	assert.Equal(t, "--email is required", err.Error())

	_, err = executeCommand(t, "", "client", "reset-password", "--token-file", filepath.Join(t.TempDir(), "token"))
	require.Error(t, err)
	assert.Equal(t, "--token is required", err.Error())
}

func TestClientCmd_CheckUser(t *testing.T) {
	srv, _ := newAuthServer(t)

	out, err := executeCommand(t, "", "client", "check-user", "--email", "ann@x.com", "--url", srv.URL, "--token-file", filepath.Join(t.TempDir(), "token"))

	require.NoError(t, err)
	assert.Contains(t, out, "exists: true")
}

func TestPromptPassword_Terminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "tty")
	require.NoError(t, err)
	defer f.Close()

	prevStdin, prevRead, prevIsTerm := stdin, readPassword, isTerminal
	t.Cleanup(func() { stdin, readPassword, isTerminal = prevStdin, prevRead, prevIsTerm })
	stdin = f
	isTerminal = func(int) bool { return true }
	readPassword = func(int) ([]byte, error) { return []byte("hidden"), nil }

	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)

	pw, err := promptPassword(cmd, "Password: ")
	require.NoError(t, err)
	assert.Equal(t, "hidden", pw)
	assert.Equal(t, "Password: \n", out.String())
}
