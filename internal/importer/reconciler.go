package importer

import (
	"catalogsync/internal/slug"
)

type Action int

const (
	ActionCreate Action = iota + 1
	ActionUpdate
	ActionSkip
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionUpdate:
		return "update"
	case ActionSkip:
		return "skip"
	default:
		return "unknown"
	}
}

// Policy tells Reconcile how to identify and compare records of one type.
type Policy[T any] struct {
	Stage Stage
	// Key returns the natural key; it is normalized before matching.
	Key func(T) string
	// ID returns the record's document id.
	ID func(T) string
	// Equal reports whether incoming carries no change over existing.
	Equal func(existing, incoming T) bool
}

// Decision is the outcome for one incoming record. ID is the existing
// document's id when one matched, else the incoming record's own id.
type Decision[T any] struct {
	Action   Action
	Key      string
	ID       string
	Incoming T
	Existing *T
}

// Reconcile classifies each incoming record against the existing set.
// Records with a blank key, repeats of a key already seen in this pass and
// creates whose id is already taken by another key are dropped and reported
// instead of decided.
func Reconcile[T any](existing, incoming []T, p Policy[T]) ([]Decision[T], []error) {
	index := make(map[string]*T, len(existing))
	taken := make(map[string]bool, len(existing))
	for i := range existing {
		taken[p.ID(existing[i])] = true
		key := slug.NormalizeKey(p.Key(existing[i]))
		if key == "" {
			continue
		}
		if _, dup := index[key]; !dup {
			index[key] = &existing[i]
		}
	}

	var dropped []error
	seen := make(map[string]bool, len(incoming))
	decisions := make([]Decision[T], 0, len(incoming))

	for _, rec := range incoming {
		raw := p.Key(rec)
		key := slug.NormalizeKey(raw)
		if key == "" {
			dropped = append(dropped, &ReconciliationError{Stage: p.Stage, Reason: "blank natural key"})
			continue
		}
		if seen[key] {
			dropped = append(dropped, &ReconciliationError{Stage: p.Stage, Key: raw, Reason: "duplicate natural key in this pass"})
			continue
		}
		seen[key] = true

		match, ok := index[key]
		switch {
		case !ok:
			id := p.ID(rec)
			if taken[id] {
				dropped = append(dropped, &ReconciliationError{Stage: p.Stage, Key: raw, Reason: "document id " + id + " already in use"})
				continue
			}
			taken[id] = true
			decisions = append(decisions, Decision[T]{Action: ActionCreate, Key: key, ID: id, Incoming: rec})
		case p.Equal(*match, rec):
			decisions = append(decisions, Decision[T]{Action: ActionSkip, Key: key, ID: p.ID(*match), Incoming: rec, Existing: match})
		default:
			decisions = append(decisions, Decision[T]{Action: ActionUpdate, Key: key, ID: p.ID(*match), Incoming: rec, Existing: match})
		}
	}
	return decisions, dropped
}
