// Package lifecycle provides the finite-state-machine core shared by the
// report and party entity kinds. Status fields are never assigned directly by
// callers; every change flows through a Machine's TryTransition so the fixed
// transition order cannot be skipped, plus a store-level conditional update
// that serializes concurrent attempts on the same entity.
package lifecycle

import (
	"deedflow/pkg/attrs"
	dErrors "deedflow/pkg/domain-errors"
)

// Event names a requested state change.
type Event string

// Machine holds the legal transitions for one entity kind. The zero value is
// unusable; construct with New.
type Machine[S ~string] struct {
	entity string
	table  map[S]map[Event]S
}

// New builds a Machine from a transition table keyed by current status then
// event.
func New[S ~string](entity string, table map[S]map[Event]S) *Machine[S] {
	return &Machine[S]{entity: entity, table: table}
}

// TryTransition resolves the next status for an event against the current
// status. It returns a GuardViolation error when the event is not legal from
// the current status; it never partially applies anything.
//
// TryTransition only enforces the transition shape. Data-dependent guards
// (all parties submitted, verdict not undetermined) are evaluated by the
// owning service before calling this, and surfaced through Violation so all
// guard failures share one error form.
func (m *Machine[S]) TryTransition(current S, event Event) (S, error) {
	if next, ok := m.table[current][event]; ok {
		return next, nil
	}
	return current, Violation("illegal_transition",
		m.entity+" cannot "+string(event)+" from status "+string(current))
}

// Can reports whether event is legal from current without constructing an
// error. Used by handlers to shape responses.
func (m *Machine[S]) Can(current S, event Event) bool {
	_, ok := m.table[current][event]
	return ok
}

// Violation constructs the canonical guard-violation error. The guard name is
// machine-readable; the detail is for humans.
func Violation(guard, detail string) *dErrors.DomainError {
	return dErrors.New(dErrors.CodeGuardViolation, detail).Add("guard", guard)
}

// GuardName extracts the guard name from a guard-violation error, or "" when
// err is not one.
func GuardName(err error) string {
	de := dErrors.Load(err)
	if de == nil || de.Code != dErrors.CodeGuardViolation {
		return ""
	}
	return attrs.ExtractString(de.Attrs, "guard")
}
