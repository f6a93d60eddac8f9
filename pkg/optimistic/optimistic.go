package optimistic

import (
	"context"
	"slices"
)

// Keyed is an entity with a stable identity
type Keyed interface {
	Key() string
}

// Draft is a partial T targeting the entity with the same key
type Draft[T any] interface {
	Key() string
	// Merge overlays the draft's set fields on existing
	Merge(existing T) T
	// Materialize builds a T from the draft alone
	Materialize() T
}

// Snapshot is a captured copy of a list; the zero value holds nothing
type Snapshot[T any] struct {
	items    []T
	captured bool
}

// Captured reports whether the snapshot holds a list
func (s Snapshot[T]) Captured() bool { return s.captured }

// Items returns a copy of the captured list
func (s Snapshot[T]) Items() []T { return slices.Clone(s.items) }

// Capture records list as it is now
func Capture[T any](list []T) Snapshot[T] {
	return Snapshot[T]{items: slices.Clone(list), captured: true}
}

// ApplyDraft returns a new list with draft merged into the entry sharing its
// key, or appended when no entry matches. list is not modified.
func ApplyDraft[T Keyed, D Draft[T]](list []T, draft D) []T {
	out := slices.Clone(list)
	for i, item := range out {
		if item.Key() == draft.Key() {
			out[i] = draft.Merge(item)
			return out
		}
	}
	return append(out, draft.Materialize())
}

// Rollback hands the captured list to setter exactly once; it does nothing
// for an empty snapshot.
func Rollback[T any](setter func([]T), snap Snapshot[T]) {
	if !snap.captured {
		return
	}
	setter(slices.Clone(snap.items))
}

// Mutate applies draft to current through setter, then runs remote. On
// failure the pre-mutation list is restored and the remote error returned.
func Mutate[T Keyed, D Draft[T]](ctx context.Context, current []T, setter func([]T), draft D, remote func(ctx context.Context) error) error {
	snap := Capture(current)
	setter(ApplyDraft(current, draft))

	if err := remote(ctx); err != nil {
		Rollback(setter, snap)
		return err
	}
	return nil
}
