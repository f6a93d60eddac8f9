package auth

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arnavshah/staffmonitr-go/pkg/api"
	"github.com/arnavshah/staffmonitr-go/pkg/models"
)

type fakeBackend struct {
	mu       sync.Mutex
	token    string
	meCalls  int
	me       models.SessionPayload
	meErr    error
	auth     models.AuthResponse
	loginErr error
}

func (f *fakeBackend) SetToken(token string) {
	f.mu.Lock()
	f.token = token
	f.mu.Unlock()
}

func (f *fakeBackend) Me(context.Context) (models.SessionPayload, error) {
	f.mu.Lock()
	f.meCalls++
	f.mu.Unlock()
	return f.me, f.meErr
}

func (f *fakeBackend) Login(context.Context, string, string) (models.AuthResponse, error) {
	return f.auth, f.loginErr
}

func (f *fakeBackend) Signup(context.Context, models.SignupPayload) (models.AuthResponse, error) {
	return f.auth, f.loginErr
}

var (
	lead    = models.StaffMember{ID: "st-1", FullName: "Dana Lead", Role: models.RoleLead, Email: "lead@example.com"}
	harbour = models.AccountGroup{ID: "acc-1", Name: "Harbour"}
)

func newSession(b *fakeBackend, tokens TokenStore) *Session {
	return NewSession(b, tokens, zap.NewNop())
}

func TestSession_StartsLoading(t *testing.T) {
	s := newSession(&fakeBackend{}, nil)
	assert.True(t, s.State().Loading)
	assert.False(t, s.State().IsAuthenticated())
}

func TestSession_RefreshWithoutToken(t *testing.T) {
	b := &fakeBackend{token: "stale"}
	s := newSession(b, NewMemoryTokenStore())

	s.Refresh(context.Background())

	st := s.State()
	assert.False(t, st.Loading)
	assert.Nil(t, st.CurrentStaff)
	assert.Empty(t, st.Accounts)
	assert.Empty(t, b.token)
	assert.Zero(t, b.meCalls, "no network call without a stored token")
}

func TestSession_RefreshRestores(t *testing.T) {
	tokens := NewMemoryTokenStore()
	require.NoError(t, tokens.Save(context.Background(), "tok"))
	b := &fakeBackend{me: models.SessionPayload{Staff: lead, Accounts: []models.AccountGroup{harbour}}}
	s := newSession(b, tokens)

	s.Refresh(context.Background())

	st := s.State()
	require.True(t, st.IsAuthenticated())
	assert.Equal(t, lead, *st.CurrentStaff)
	assert.Equal(t, []models.AccountGroup{harbour}, st.Accounts)
	assert.Equal(t, "tok", b.token)
	assert.False(t, st.Loading)
}

func TestSession_RefreshFailureSignsOutSilently(t *testing.T) {
	tokens := NewMemoryTokenStore()
	require.NoError(t, tokens.Save(context.Background(), "expired"))
	b := &fakeBackend{meErr: &api.Error{StatusCode: http.StatusUnauthorized, Message: "Invalid or expired token"}}
	s := newSession(b, tokens)

	s.Refresh(context.Background())

	st := s.State()
	assert.False(t, st.IsAuthenticated())
	assert.Empty(t, st.Error)
	assert.Empty(t, b.token)
	stored, _ := tokens.Load(context.Background())
	assert.Empty(t, stored)
}

func TestSession_Login(t *testing.T) {
	tokens := NewMemoryTokenStore()
	b := &fakeBackend{auth: models.AuthResponse{AccessToken: "fresh", Staff: lead, Accounts: []models.AccountGroup{harbour}}}
	s := newSession(b, tokens)

	require.True(t, s.Login(context.Background(), "lead@example.com", "pw"))

	st := s.State()
	assert.True(t, st.IsAuthenticated())
	assert.Equal(t, []models.AccountGroup{harbour}, st.Accounts)
	assert.Equal(t, "fresh", b.token)
	stored, _ := tokens.Load(context.Background())
	assert.Equal(t, "fresh", stored)
}

func TestSession_LoginFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"server message", &api.Error{StatusCode: http.StatusUnauthorized, Message: "Invalid credentials"}, "Invalid credentials"},
		{"no message", &api.Error{StatusCode: http.StatusBadGateway}, "Unable to sign in."},
		{"transport", errors.New("connection refused"), "Unable to sign in."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &fakeBackend{loginErr: tt.err}
			s := newSession(b, nil)

			assert.False(t, s.Login(context.Background(), "x@example.com", "bad"))
			st := s.State()
			assert.Equal(t, tt.want, st.Error)
			assert.Nil(t, st.CurrentStaff)
			assert.True(t, st.Loading, "loading is untouched by login")
		})
	}
}

func TestSession_LoginFailureKeepsExistingIdentity(t *testing.T) {
	b := &fakeBackend{auth: models.AuthResponse{AccessToken: "tok", Staff: lead}}
	s := newSession(b, nil)
	require.True(t, s.Login(context.Background(), "lead@example.com", "pw"))

	b.loginErr = &api.Error{StatusCode: http.StatusUnauthorized, Message: "Invalid credentials"}
	assert.False(t, s.Login(context.Background(), "lead@example.com", "bad"))
	assert.True(t, s.State().IsAuthenticated())
	assert.Equal(t, "tok", b.token)
}

func TestSession_SignupFailureFallback(t *testing.T) {
	b := &fakeBackend{loginErr: &api.Error{StatusCode: http.StatusUnprocessableEntity}}
	s := newSession(b, nil)

	assert.False(t, s.Signup(context.Background(), models.SignupPayload{Email: "o@example.com"}))
	assert.Equal(t, "Unable to create workspace.", s.State().Error)
}

func TestSession_Logout(t *testing.T) {
	tokens := NewMemoryTokenStore()
	b := &fakeBackend{auth: models.AuthResponse{AccessToken: "tok", Staff: lead, Accounts: []models.AccountGroup{harbour}}}
	s := newSession(b, tokens)
	require.True(t, s.Login(context.Background(), "lead@example.com", "pw"))

	s.Logout(context.Background())

	st := s.State()
	assert.False(t, st.IsAuthenticated())
	assert.Empty(t, st.Accounts)
	assert.Empty(t, b.token)
	stored, _ := tokens.Load(context.Background())
	assert.Empty(t, stored)
}

func TestSession_BootstrapRunsOnce(t *testing.T) {
	tokens := NewMemoryTokenStore()
	require.NoError(t, tokens.Save(context.Background(), "tok"))
	b := &fakeBackend{me: models.SessionPayload{Staff: lead}}
	s := newSession(b, tokens)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Bootstrap(context.Background())
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, b.meCalls)

	s.Refresh(context.Background())
	assert.Equal(t, 2, b.meCalls, "manual refresh stays available")
}

func TestSession_Subscribe(t *testing.T) {
	b := &fakeBackend{auth: models.AuthResponse{AccessToken: "tok", Staff: lead}}
	s := newSession(b, nil)

	var last State
	calls := 0
	unsubscribe := s.Subscribe(func(st State) {
		calls++
		last = st
	})

	s.Login(context.Background(), "lead@example.com", "pw")
	assert.Positive(t, calls)
	assert.True(t, last.IsAuthenticated())

	unsubscribe()
	before := calls
	s.Logout(context.Background())
	assert.Equal(t, before, calls)
}

func TestSession_StateIsACopy(t *testing.T) {
	b := &fakeBackend{auth: models.AuthResponse{AccessToken: "tok", Staff: lead, Accounts: []models.AccountGroup{harbour}}}
	s := newSession(b, nil)
	s.Login(context.Background(), "lead@example.com", "pw")

	st := s.State()
	st.CurrentStaff.FullName = "changed"
	st.Accounts[0].Name = "changed"

	assert.Equal(t, "Dana Lead", s.State().CurrentStaff.FullName)
	assert.Equal(t, "Harbour", s.State().Accounts[0].Name)
}
