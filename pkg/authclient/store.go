package authclient

import (
	"sync"
)

// State is the client-side session state.
type State struct {
	User        *User
	Loading     bool
	Error       string
	Initialized bool
}

// Action describes a state transition. Actions are applied by Reduce.
type Action interface {
	isAction()
}

// ActionStart marks the beginning of a request. It clears the error.
type ActionStart struct{}

// ActionSucceeded ends a request that produced a user.
type ActionSucceeded struct {
	User *User
}

// ActionDone ends a request that leaves the user unchanged.
type ActionDone struct{}

// ActionFailed ends a request with a message for the user.
type ActionFailed struct {
	Message string
}

// ActionSignedOut ends a logout. The user is cleared whether or not the
// server call succeeded; Message carries the failure, if any.
type ActionSignedOut struct {
	Message string
}

// ActionInitialized ends the initial session lookup. Error is set when the
// lookup failed for a reason other than a missing session.
type ActionInitialized struct {
	User  *User
	Error string
}

// ActionClearError clears the error.
type ActionClearError struct{}

func (ActionStart) isAction()       {}
func (ActionSucceeded) isAction()   {}
func (ActionDone) isAction()        {}
func (ActionFailed) isAction()      {}
func (ActionSignedOut) isAction()   {}
func (ActionInitialized) isAction() {}
func (ActionClearError) isAction()  {}

// Reduce returns the state after applying action to s.
func Reduce(s State, action Action) State {
	switch a := action.(type) {
	case ActionStart:
		s.Loading = true
		s.Error = ""
	case ActionSucceeded:
		s.User = a.User
		s.Loading = false
		s.Error = ""
	case ActionDone:
		s.Loading = false
	case ActionFailed:
		s.Loading = false
		s.Error = a.Message
	case ActionSignedOut:
		s.User = nil
		s.Loading = false
		s.Error = a.Message
	case ActionInitialized:
		s.User = a.User
		s.Loading = false
		s.Error = a.Error
		s.Initialized = true
	case ActionClearError:
		s.Error = ""
	}
	return s
}

// Listener is notified with the new state after every dispatch.
type Listener func(State)

// Store holds State and notifies subscribers of changes. It is safe for
// concurrent use.
type Store struct {
	mu        sync.RWMutex
	state     State
	listeners map[int]Listener
	nextID    int
}

// NewStore creates a Store with the initial state.
func NewStore(initial State) *Store {
	return &Store{
		state:     initial,
		listeners: make(map[int]Listener),
	}
}

// GetState returns a snapshot of the current state.
func (s *Store) GetState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Dispatch applies action and notifies subscribers outside the lock, so a
// listener may read the store or dispatch again.
func (s *Store) Dispatch(action Action) {
	s.mu.Lock()
	s.state = Reduce(s.state, action)
	state := s.state
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(state)
	}
}
