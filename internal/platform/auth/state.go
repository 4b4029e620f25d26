package auth

import "sync"

// State tracks the signed-in user and notifies listeners of transitions.
// Listeners are invoked synchronously on the calling goroutine, in
// registration order. The zero value is not usable; call NewState.
type State struct {
	mu        sync.Mutex
	userID    string
	nextID    int
	listeners map[int]func(userID string, signedIn bool)
}

func NewState() *State {
	return &State{listeners: make(map[int]func(string, bool))}
}

// Subscribe registers a listener for sign-in/sign-out transitions and returns
// an unsubscribe func. The listener is not called for the current state.
func (s *State) Subscribe(fn func(userID string, signedIn bool)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// SignIn records the user and notifies listeners.
func (s *State) SignIn(userID string) {
	s.transition(userID, true)
}

// SignOut clears the user and notifies listeners. Cache-owning components
// subscribe so all playlist state is dropped on sign-out.
func (s *State) SignOut() {
	s.transition("", false)
}

// UserID returns the signed-in user id, or "" when signed out.
func (s *State) UserID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID, s.userID != ""
}

func (s *State) transition(userID string, signedIn bool) {
	s.mu.Lock()
	s.userID = userID
	fns := make([]func(string, bool), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(userID, signedIn)
	}
}
