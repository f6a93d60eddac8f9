package store

import (
	"slices"
	"sync"

	"github.com/arnavshah/staffmonitr-go/pkg/models"
)

// State is a point-in-time copy of the store
type State struct {
	Shifts      []models.ShiftEvent
	OpenShifts  []models.ShiftEvent
	Assignments []models.Assignment
	Kids        []models.KidDetails
}

// Listener is called after every mutation with the new state
type Listener func(State)

// ScheduleStore is the shared cache of the active tenant's schedule.
// Writes replace whole lists; there is no referential checking between them.
type ScheduleStore struct {
	mu        sync.RWMutex
	state     State
	listeners map[int]Listener
	nextID    int
}

// New returns an empty store
func New() *ScheduleStore {
	return &ScheduleStore{listeners: make(map[int]Listener)}
}

// Subscribe registers fn and returns a function that removes it
func (s *ScheduleStore) Subscribe(fn Listener) func() {
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

func (s *ScheduleStore) update(fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	snap := s.copyLocked()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
}

func (s *ScheduleStore) copyLocked() State {
	return State{
		Shifts:      slices.Clone(s.state.Shifts),
		OpenShifts:  slices.Clone(s.state.OpenShifts),
		Assignments: slices.Clone(s.state.Assignments),
		Kids:        slices.Clone(s.state.Kids),
	}
}

// SetShifts replaces the shift list
func (s *ScheduleStore) SetShifts(shifts []models.ShiftEvent) {
	s.update(func(st *State) { st.Shifts = slices.Clone(shifts) })
}

// AppendShift adds shift at the end without checking for duplicates
func (s *ScheduleStore) AppendShift(shift models.ShiftEvent) {
	s.update(func(st *State) { st.Shifts = append(slices.Clone(st.Shifts), shift) })
}

// SetOpenShifts replaces the open shift list
func (s *ScheduleStore) SetOpenShifts(shifts []models.ShiftEvent) {
	s.update(func(st *State) { st.OpenShifts = slices.Clone(shifts) })
}

// RemoveOpenShift drops every open shift with the given id
func (s *ScheduleStore) RemoveOpenShift(id string) {
	s.update(func(st *State) {
		st.OpenShifts = slices.DeleteFunc(slices.Clone(st.OpenShifts), func(sh models.ShiftEvent) bool {
			return sh.ID == id
		})
	})
}

// SetKids replaces the kid list
func (s *ScheduleStore) SetKids(kids []models.KidDetails) {
	s.update(func(st *State) { st.Kids = slices.Clone(kids) })
}

// SetAssignments replaces the assignment list
func (s *ScheduleStore) SetAssignments(assignments []models.Assignment) {
	s.update(func(st *State) { st.Assignments = slices.Clone(assignments) })
}

// LoadShifts stores shifts together with their flattened assignments and
// assignment kids in a single notification.
func (s *ScheduleStore) LoadShifts(shifts []models.ShiftEvent) {
	var assignments []models.Assignment
	var kids []models.KidDetails
	for _, sh := range shifts {
		for _, a := range sh.Assignments {
			assignments = append(assignments, a)
			kids = append(kids, a.Kids...)
		}
	}

	s.update(func(st *State) {
		st.Shifts = slices.Clone(shifts)
		st.Assignments = assignments
		st.Kids = kids
	})
}

// Reset empties every list
func (s *ScheduleStore) Reset() {
	s.update(func(st *State) { *st = State{} })
}

// Snapshot returns a copy of the whole state
func (s *ScheduleStore) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

func (s *ScheduleStore) Shifts() []models.ShiftEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.state.Shifts)
}

func (s *ScheduleStore) OpenShifts() []models.ShiftEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.state.OpenShifts)
}

func (s *ScheduleStore) Assignments() []models.Assignment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.state.Assignments)
}

func (s *ScheduleStore) Kids() []models.KidDetails {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.state.Kids)
}

// Shift looks up a cached shift by id
func (s *ScheduleStore) Shift(id string) (models.ShiftEvent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return find(s.state.Shifts, id)
}

// OpenShift looks up a cached open shift by id
func (s *ScheduleStore) OpenShift(id string) (models.ShiftEvent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return find(s.state.OpenShifts, id)
}

func find(list []models.ShiftEvent, id string) (models.ShiftEvent, bool) {
	i := slices.IndexFunc(list, func(sh models.ShiftEvent) bool { return sh.ID == id })
	if i < 0 {
		return models.ShiftEvent{}, false
	}
	return list[i], true
}
