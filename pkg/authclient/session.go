package authclient

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
)

// MsgNetworkError is shown when the server could not be reached.
const MsgNetworkError = "Unable to reach the server. Check your connection and try again."

// ErrInFlight is returned when an action is started while another one is
// still running.
var ErrInFlight = errors.New("another request is in progress")

// API is the part of Client a Session drives.
type API interface {
	Token() string
	Register(ctx context.Context, name, email, password string) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*User, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, secret, password string) (*AuthResult, error)
}

var _ API = (*Client)(nil)

// Session runs user actions against the API and records their outcome in a
// Store. At most one action runs at a time.
type Session struct {
	api   API
	store *Store

	initMu   sync.Mutex
	initDone bool
	initErr  error
	inFlight atomic.Bool
}

// NewSession creates a Session with an empty, uninitialized store.
func NewSession(api API) *Session {
	return &Session{
		api:   api,
		store: NewStore(State{}),
	}
}

// Store returns the observable state of the session.
func (s *Session) Store() *Store {
	return s.store
}

// Init resolves the current user once. Later calls return the first result
// without touching the network. Init holds the same guard as the other
// actions, so it returns ErrInFlight while one of them runs and they return
// ErrInFlight while the lookup is pending.
func (s *Session) Init(ctx context.Context) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()
	if s.initDone {
		return s.initErr
	}

	if !s.inFlight.CompareAndSwap(false, true) {
		return ErrInFlight
	}
	defer s.inFlight.Store(false)
	s.initDone = true

	if s.api.Token() == "" {
		s.store.Dispatch(ActionInitialized{})
		return nil
	}

	s.store.Dispatch(ActionStart{})
	user, err := s.api.Me(ctx)
	switch {
	case err == nil:
		s.store.Dispatch(ActionInitialized{User: user})
	case isStatus(err, http.StatusUnauthorized):
		// A stale token just means nobody is signed in
		s.store.Dispatch(ActionInitialized{})
	default:
		s.initErr = err
		s.store.Dispatch(ActionInitialized{Error: MessageFor(err)})
	}
	return s.initErr
}

// Register creates an account and signs it in.
func (s *Session) Register(ctx context.Context, name, email, password string) error {
	return s.run(ctx, func(ctx context.Context) (Action, error) {
		result, err := s.api.Register(ctx, name, email, password)
		if err != nil {
			return nil, err
		}
		return ActionSucceeded{User: &result.User}, nil
	})
}

// Login signs a user in.
func (s *Session) Login(ctx context.Context, email, password string) error {
	return s.run(ctx, func(ctx context.Context) (Action, error) {
		result, err := s.api.Login(ctx, email, password)
		if err != nil {
			return nil, err
		}
		return ActionSucceeded{User: &result.User}, nil
	})
}

// Logout ends the session. The stored token is gone even when the server
// call fails, so the user is cleared in both cases.
func (s *Session) Logout(ctx context.Context) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		return ErrInFlight
	}
	defer s.inFlight.Store(false)

	s.store.Dispatch(ActionStart{})
	if err := s.api.Logout(ctx); err != nil {
		s.store.Dispatch(ActionSignedOut{Message: MessageFor(err)})
		return err
	}
	s.store.Dispatch(ActionSignedOut{})
	return nil
}

// ForgotPassword requests a reset email and returns the server's message.
func (s *Session) ForgotPassword(ctx context.Context, email string) (string, error) {
	var message string
	err := s.run(ctx, func(ctx context.Context) (Action, error) {
		msg, err := s.api.ForgotPassword(ctx, email)
		if err != nil {
			return nil, err
		}
		message = msg
		return ActionDone{}, nil
	})
	return message, err
}

// ResetPassword sets a new password with the emailed secret and signs the
// user in.
func (s *Session) ResetPassword(ctx context.Context, secret, password string) error {
	return s.run(ctx, func(ctx context.Context) (Action, error) {
		result, err := s.api.ResetPassword(ctx, secret, password)
		if err != nil {
			return nil, err
		}
		return ActionSucceeded{User: &result.User}, nil
	})
}

// ClearError removes the current error message.
func (s *Session) ClearError() {
	s.store.Dispatch(ActionClearError{})
}

func (s *Session) run(ctx context.Context, call func(context.Context) (Action, error)) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		return ErrInFlight
	}
	defer s.inFlight.Store(false)

	s.store.Dispatch(ActionStart{})

	action, err := call(ctx)
	if err != nil {
		s.store.Dispatch(ActionFailed{Message: MessageFor(err)})
		return err
	}
	s.store.Dispatch(action)
	return nil
}

// MessageFor returns the text to show a user for err.
func MessageFor(err error) string {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, ErrNetwork):
		return MsgNetworkError
	default:
		return err.Error()
	}
}

func isStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}
