package auth

import (
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/arnavshah/staffmonitr-go/pkg/api"
	"github.com/arnavshah/staffmonitr-go/pkg/models"
)

const (
	fallbackLoginError  = "Unable to sign in."
	fallbackSignupError = "Unable to create workspace."
)

// Backend is the part of the API the session needs
type Backend interface {
	SetToken(token string)
	Me(ctx context.Context) (models.SessionPayload, error)
	Login(ctx context.Context, email, password string) (models.AuthResponse, error)
	Signup(ctx context.Context, payload models.SignupPayload) (models.AuthResponse, error)
}

// State is a copy of the session as observed by callers
type State struct {
	Loading      bool
	CurrentStaff *models.StaffMember
	Accounts     []models.AccountGroup
	Error        string
}

// IsAuthenticated reports whether a staff member is signed in
func (s State) IsAuthenticated() bool {
	return s.CurrentStaff != nil
}

// Session owns the signed-in identity and its token
type Session struct {
	backend Backend
	tokens  TokenStore
	logger  *zap.Logger

	mu        sync.RWMutex
	state     State
	bootstrap sync.Once
	listeners map[int]func(State)
	nextID    int
}

// NewSession returns a session in the loading state; call Bootstrap to restore it
func NewSession(backend Backend, tokens TokenStore, logger *zap.Logger) *Session {
	if tokens == nil {
		tokens = NewMemoryTokenStore()
	}
	if logger == nil {
		logger = zap.L()
	}
	return &Session{
		backend:   backend,
		tokens:    tokens,
		logger:    logger,
		state:     State{Loading: true},
		listeners: make(map[int]func(State)),
	}
}

// State returns a copy of the current state
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

func (s *Session) copyLocked() State {
	st := s.state
	st.Accounts = slices.Clone(s.state.Accounts)
	if s.state.CurrentStaff != nil {
		staff := *s.state.CurrentStaff
		st.CurrentStaff = &staff
	}
	return st
}

// Subscribe registers fn to run after every state change
func (s *Session) Subscribe(fn func(State)) func() {
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

func (s *Session) update(fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	snap := s.copyLocked()
	listeners := make([]func(State), 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
}

// Bootstrap restores the persisted session once per Session
func (s *Session) Bootstrap(ctx context.Context) {
	s.bootstrap.Do(func() { s.Refresh(ctx) })
}

// Refresh re-reads the identity behind the stored token. Any failure
// signs the session out without reporting an error.
func (s *Session) Refresh(ctx context.Context) {
	s.update(func(st *State) { st.Loading = true })

	token, err := s.tokens.Load(ctx)
	if err != nil {
		s.logger.Warn("token store load failed", zap.Error(err))
	}
	if token == "" {
		s.persistToken(ctx, "")
		s.update(func(st *State) {
			st.CurrentStaff = nil
			st.Accounts = nil
			st.Loading = false
		})
		return
	}

	s.persistToken(ctx, token)
	payload, err := s.backend.Me(ctx)
	if err != nil {
		s.logger.Info("session_expired", zap.Int("status", api.StatusCode(err)), zap.Error(err))
		s.persistToken(ctx, "")
		s.update(func(st *State) {
			st.CurrentStaff = nil
			st.Accounts = nil
			st.Error = ""
			st.Loading = false
		})
		return
	}

	s.logger.Info("session_restored", zap.String("staff_id", payload.Staff.ID))
	s.update(func(st *State) {
		staff := payload.Staff
		st.CurrentStaff = &staff
		st.Accounts = payload.Accounts
		st.Error = ""
		st.Loading = false
	})
}

// Login signs in with credentials. On failure Error carries the server's
// message and the rest of the state is left as it was.
func (s *Session) Login(ctx context.Context, email, password string) bool {
	s.update(func(st *State) { st.Error = "" })

	resp, err := s.backend.Login(ctx, email, password)
	if err != nil {
		s.logger.Info("login_failed", zap.Int("status", api.StatusCode(err)))
		s.update(func(st *State) { st.Error = api.Message(err, fallbackLoginError) })
		return false
	}

	s.signedIn(ctx, resp)
	s.logger.Info("login_succeeded", zap.String("staff_id", resp.Staff.ID))
	return true
}

// Signup creates a workspace and signs its owner in
func (s *Session) Signup(ctx context.Context, payload models.SignupPayload) bool {
	s.update(func(st *State) { st.Error = "" })

	resp, err := s.backend.Signup(ctx, payload)
	if err != nil {
		s.logger.Info("signup_failed", zap.Int("status", api.StatusCode(err)))
		s.update(func(st *State) { st.Error = api.Message(err, fallbackSignupError) })
		return false
	}

	s.signedIn(ctx, resp)
	s.logger.Info("signup_succeeded", zap.String("staff_id", resp.Staff.ID))
	return true
}

func (s *Session) signedIn(ctx context.Context, resp models.AuthResponse) {
	s.persistToken(ctx, resp.AccessToken)
	s.update(func(st *State) {
		staff := resp.Staff
		st.CurrentStaff = &staff
		st.Accounts = resp.Accounts
	})
}

// Logout forgets the identity locally; the server is not contacted
func (s *Session) Logout(ctx context.Context) {
	s.persistToken(ctx, "")
	s.update(func(st *State) {
		st.CurrentStaff = nil
		st.Accounts = nil
		st.Error = ""
	})
	s.logger.Info("logged_out")
}

func (s *Session) persistToken(ctx context.Context, token string) {
	var err error
	if token == "" {
		err = s.tokens.Clear(ctx)
	} else {
		err = s.tokens.Save(ctx, token)
	}
	if err != nil {
		s.logger.Warn("token store write failed", zap.Error(err))
	}
	s.backend.SetToken(token)
}
