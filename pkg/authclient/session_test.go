package authclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockAPI implements API with overridable functions.
type MockAPI struct {
	mu    sync.Mutex
	token string
	calls int

	RegisterFunc       func(ctx context.Context, name, email, password string) (*AuthResult, error)
	LoginFunc          func(ctx context.Context, email, password string) (*AuthResult, error)
	LogoutFunc         func(ctx context.Context) error
	MeFunc             func(ctx context.Context) (*User, error)
	ForgotPasswordFunc func(ctx context.Context, email string) (string, error)
	ResetPasswordFunc  func(ctx context.Context, secret, password string) (*AuthResult, error)
}

func (m *MockAPI) count() {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
}

func (m *MockAPI) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockAPI) Token() string {
	return m.token
}

func (m *MockAPI) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	m.count()
	return m.RegisterFunc(ctx, name, email, password)
}

func (m *MockAPI) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	m.count()
	return m.LoginFunc(ctx, email, password)
}

func (m *MockAPI) Logout(ctx context.Context) error {
	m.count()
	return m.LogoutFunc(ctx)
}

func (m *MockAPI) Me(ctx context.Context) (*User, error) {
	m.count()
	return m.MeFunc(ctx)
}

func (m *MockAPI) ForgotPassword(ctx context.Context, email string) (string, error) {
	m.count()
	return m.ForgotPasswordFunc(ctx, email)
}

func (m *MockAPI) ResetPassword(ctx context.Context, secret, password string) (*AuthResult, error) {
	m.count()
	return m.ResetPasswordFunc(ctx, secret, password)
}

var ann = User{ID: "u-1", Name: "Ann", Email: "ann@x.com"}

// record collects every state the store publishes.
func record(s *Session) *[]State {
	var mu sync.Mutex
	states := []State{}
	s.Store().Subscribe(func(st State) {
		mu.Lock()
		states = append(states, st)
		mu.Unlock()
	})
	return &states
}

func TestSession_Init(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		me       func(ctx context.Context) (*User, error)
		want     State
		wantErr  bool
		wantCall int
	}{
		{
			name:  "no stored token skips the network",
			want:  State{Initialized: true},
			me:    func(context.Context) (*User, error) { return nil, errors.New("unexpected") },
			token: "",
		},
		{
			name:     "valid token resolves user",
			token:    "tok",
			me:       func(context.Context) (*User, error) { u := ann; return &u, nil },
			want:     State{User: &ann, Initialized: true},
			wantCall: 1,
		},
		{
			name:  "revoked token means signed out",
			token: "tok",
			me: func(context.Context) (*User, error) {
				return nil, &APIError{StatusCode: http.StatusUnauthorized, Message: "Not authorized to access this route"}
			},
			want:     State{Initialized: true},
			wantCall: 1,
		},
		{
			name:  "network failure is surfaced",
			token: "tok",
			me: func(context.Context) (*User, error) {
				return nil, fmt.Errorf("%w: connection refused", ErrNetwork)
			},
			want:     State{Initialized: true, Error: MsgNetworkError},
			wantErr:  true,
			wantCall: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &MockAPI{token: tt.token, MeFunc: tt.me}
			s := NewSession(api)

			err1 := s.Init(context.Background())
			err2 := s.Init(context.Background())

			assert.Equal(t, tt.wantErr, err1 != nil)
			assert.Equal(t, err1, err2, "second Init returns the first result")
			assert.Equal(t, tt.want, s.Store().GetState())
			assert.Equal(t, tt.wantCall, api.Calls(), "Me is called at most once")
		})
	}
}

func TestSession_LoginTransitions(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		api := &MockAPI{LoginFunc: func(context.Context, string, string) (*AuthResult, error) {
			return &AuthResult{Token: "tok", User: ann}, nil
		}}
		s := NewSession(api)
		s.Store().Dispatch(ActionFailed{Message: "previous"})
		states := record(s)

		require.NoError(t, s.Login(context.Background(), "ann@x.com", "secret1"))

		assert.Equal(t, []State{
			{Loading: true},
			{User: &ann},
		}, *states)
	})

	t.Run("failure", func(t *testing.T) {
		api := &MockAPI{LoginFunc: func(context.Context, string, string) (*AuthResult, error) {
			return nil, &APIError{StatusCode: http.StatusUnauthorized, Message: "The email or password you entered is incorrect"}
		}}
		s := NewSession(api)
		states := record(s)

		err := s.Login(context.Background(), "ann@x.com", "wrong")

		assert.Error(t, err)
		assert.Equal(t, []State{
			{Loading: true},
			{Error: "The email or password you entered is incorrect"},
		}, *states)
	})
}

func TestSession_Actions(t *testing.T) {
	u := ann
	api := &MockAPI{
		RegisterFunc: func(context.Context, string, string, string) (*AuthResult, error) {
			return &AuthResult{Token: "t1", User: u}, nil
		},
		LogoutFunc: func(context.Context) error { return nil },
		ForgotPasswordFunc: func(context.Context, string) (string, error) {
			return "Email sent", nil
		},
		ResetPasswordFunc: func(context.Context, string, string) (*AuthResult, error) {
			return &AuthResult{Token: "t2", User: u}, nil
		},
	}
	s := NewSession(api)
	ctx := context.Background()

	require.NoError(t, s.Register(ctx, "Ann", "ann@x.com", "secret1"))
	assert.Equal(t, &u, s.Store().GetState().User)

	require.NoError(t, s.Logout(ctx))
	assert.Nil(t, s.Store().GetState().User)

	msg, err := s.ForgotPassword(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Email sent", msg)
	assert.Nil(t, s.Store().GetState().User)
	assert.False(t, s.Store().GetState().Loading)

	require.NoError(t, s.ResetPassword(ctx, "secret", "newpass1"))
	assert.Equal(t, &u, s.Store().GetState().User)
	assert.Equal(t, 4, api.Calls())
}

func TestSession_ClearError(t *testing.T) {
	api := &MockAPI{ForgotPasswordFunc: func(context.Context, string) (string, error) {
		return "", &APIError{StatusCode: http.StatusNotFound, Message: "No user with that email"}
	}}
	s := NewSession(api)

	_, err := s.ForgotPassword(context.Background(), "nobody@x.com")
	require.Error(t, err)
	assert.Equal(t, "No user with that email", s.Store().GetState().Error)

	s.ClearError()
	assert.Empty(t, s.Store().GetState().Error)
}

func TestSession_InFlightGuard(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	api := &MockAPI{LoginFunc: func(context.Context, string, string) (*AuthResult, error) {
		close(started)
		<-release
		return &AuthResult{Token: "tok", User: ann}, nil
	}}
	s := NewSession(api)

	done := make(chan error, 1)
	go func() { done <- s.Login(context.Background(), "ann@x.com", "secret1") }()
	<-started

	assert.ErrorIs(t, s.Login(context.Background(), "ann@x.com", "secret1"), ErrInFlight)
	assert.ErrorIs(t, s.Logout(context.Background()), ErrInFlight)
	assert.True(t, s.Store().GetState().Loading)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, api.Calls())
	assert.False(t, s.Store().GetState().Loading)
}

func TestSession_InitHoldsGuard(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	api := &MockAPI{
		token: "stale",
		MeFunc: func(context.Context) (*User, error) {
			close(started)
			<-release
			return nil, &APIError{StatusCode: http.StatusUnauthorized, Message: "Not authorized to access this route"}
		},
		LoginFunc: func(context.Context, string, string) (*AuthResult, error) {
			return &AuthResult{Token: "tok", User: ann}, nil
		},
	}
	s := NewSession(api)

	done := make(chan error, 1)
	go func() { done <- s.Init(context.Background()) }()
	<-started

	assert.ErrorIs(t, s.Login(context.Background(), "ann@x.com", "secret1"), ErrInFlight)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, State{Initialized: true}, s.Store().GetState())

	// Once the lookup has settled, a login is no longer overwritten by it.
	require.NoError(t, s.Login(context.Background(), "ann@x.com", "secret1"))
	require.NoError(t, s.Init(context.Background()))
	assert.Equal(t, &ann, s.Store().GetState().User)
	assert.Equal(t, 2, api.Calls())
}

func TestSession_InitDuringAction(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	api := &MockAPI{
		token: "tok",
		LoginFunc: func(context.Context, string, string) (*AuthResult, error) {
			close(started)
			<-release
			return &AuthResult{Token: "tok", User: ann}, nil
		},
		MeFunc: func(context.Context) (*User, error) { u := ann; return &u, nil },
	}
	s := NewSession(api)

	done := make(chan error, 1)
	go func() { done <- s.Login(context.Background(), "ann@x.com", "secret1") }()
	<-started

	assert.ErrorIs(t, s.Init(context.Background()), ErrInFlight)
	assert.False(t, s.Store().GetState().Initialized)

	close(release)
	require.NoError(t, <-done)

	// A refused Init can be retried.
	require.NoError(t, s.Init(context.Background()))
	state := s.Store().GetState()
	assert.True(t, state.Initialized)
	assert.Equal(t, &ann, state.User)
}

func TestSession_LogoutFailureClearsUser(t *testing.T) {
	api := &MockAPI{
		LoginFunc: func(context.Context, string, string) (*AuthResult, error) {
			return &AuthResult{Token: "tok", User: ann}, nil
		},
		LogoutFunc: func(context.Context) error {
			return fmt.Errorf("%w: connection refused", ErrNetwork)
		},
	}
	s := NewSession(api)
	require.NoError(t, s.Login(context.Background(), "ann@x.com", "secret1"))
	states := record(s)

	err := s.Logout(context.Background())

	assert.ErrorIs(t, err, ErrNetwork)
	assert.Equal(t, []State{
		{User: &ann, Loading: true},
		{Error: MsgNetworkError},
	}, *states)
}

func TestMessageFor(t *testing.T) {
	assert.Equal(t, "Invalid token", MessageFor(&APIError{StatusCode: 400, Message: "Invalid token"}))
	assert.Equal(t, MsgNetworkError, MessageFor(fmt.Errorf("%w: timeout", ErrNetwork)))
	assert.Equal(t, "context canceled", MessageFor(context.Canceled))
}
