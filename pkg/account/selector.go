package account

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/arnavshah/staffmonitr-go/pkg/models"
)

// ErrUnknownAccount is returned by SelectByID for ids outside the session's accounts
var ErrUnknownAccount = errors.New("account not available to this session")

// Default is used whenever the session carries no accounts
var Default = models.AccountGroup{
	ID:       "site-101",
	Name:     "Blue Harbor Intake",
	Branding: models.Branding{PrimaryColor: "#3b82f6"},
	Geofence: models.Geofence{Lat: 34.0522, Lon: -118.2437, RadiusMeters: 450},
}

// Selector tracks the active tenant for the current session
type Selector struct {
	mu         sync.RWMutex
	accounts   []models.AccountGroup
	selectedID string
	listeners  map[int]func(models.AccountGroup)
	nextID     int
}

// NewSelector returns a selector pointing at Default
func NewSelector() *Selector {
	return &Selector{
		selectedID: Default.ID,
		listeners:  make(map[int]func(models.AccountGroup)),
	}
}

// Subscribe registers fn to run after the selection or account set changes
func (s *Selector) Subscribe(fn func(models.AccountGroup)) func() {
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

func (s *Selector) notify() {
	s.mu.RLock()
	selected := s.selectedLocked()
	listeners := make([]func(models.AccountGroup), 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.RUnlock()

	for _, l := range listeners {
		l(selected)
	}
}

// Sync replaces the account set and keeps the selection valid: an empty set
// points at Default, a set that does not contain the selection picks its
// first element.
func (s *Selector) Sync(accounts []models.AccountGroup) {
	s.mu.Lock()
	s.accounts = slices.Clone(accounts)
	switch {
	case len(accounts) == 0:
		s.selectedID = Default.ID
	case indexOf(accounts, s.selectedID) < 0:
		s.selectedID = accounts[0].ID
	}
	s.mu.Unlock()

	s.notify()
}

// Accounts returns the session's accounts, or Default alone when there are none
func (s *Selector) Accounts() []models.AccountGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.availableLocked()
}

func (s *Selector) availableLocked() []models.AccountGroup {
	if len(s.accounts) == 0 {
		return []models.AccountGroup{Default}
	}
	return slices.Clone(s.accounts)
}

// Selected resolves the selection, falling back to the first available
// account when the pointer is stale.
func (s *Selector) Selected() models.AccountGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedLocked()
}

func (s *Selector) selectedLocked() models.AccountGroup {
	available := s.availableLocked()
	if i := indexOf(available, s.selectedID); i >= 0 {
		return available[i]
	}
	return available[0]
}

// SelectedID returns the raw selection pointer
func (s *Selector) SelectedID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedID
}

// SetSelected points the selection at account without checking membership
func (s *Selector) SetSelected(account models.AccountGroup) {
	s.mu.Lock()
	s.selectedID = account.ID
	s.mu.Unlock()

	s.notify()
}

// SelectByID selects one of the available accounts by id
func (s *Selector) SelectByID(id string) error {
	s.mu.RLock()
	available := s.availableLocked()
	s.mu.RUnlock()

	i := indexOf(available, id)
	if i < 0 {
		return fmt.Errorf("account.SelectByID %q -> %w", id, ErrUnknownAccount)
	}
	s.SetSelected(available[i])
	return nil
}

func indexOf(accounts []models.AccountGroup, id string) int {
	return slices.IndexFunc(accounts, func(a models.AccountGroup) bool { return a.ID == id })
}
