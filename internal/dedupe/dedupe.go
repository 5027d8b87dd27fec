// Package dedupe decides whether a candidate occurrence already has a
// counterpart in the destination calendar.
package dedupe

import (
	"fmt"

	"calsync/internal/model"
)

// Policy selects the equality test used against destination items.
type Policy int

const (
	// PolicySubject matches on exact subject equality alone.
	PolicySubject Policy = iota

	// PolicySubjectTime additionally requires the existing item's
	// interval to be contained in the candidate's interval. This is the
	// preferred policy; PolicySubject is the simplified legacy behavior.
	PolicySubjectTime
)

// ParsePolicy maps a config/flag value onto a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "subject":
		return PolicySubject, nil
	case "", "subject-time":
		return PolicySubjectTime, nil
	}
	return 0, fmt.Errorf("unknown match policy %q", s)
}

// Exists reports whether any destination item matches the candidate under
// the policy. The candidate subject must already be the transformed one.
// Read-only: nothing is mutated.
func Exists(items []*model.CalendarEvent, candidate model.Occurrence, policy Policy) bool {
	for _, it := range items {
		if it.Subject != candidate.Subject {
			continue
		}
		if policy == PolicySubject {
			return true
		}
		// Deliberately loose containment, not exact interval equality.
		if !it.Start.Before(candidate.Start) && !it.End.After(candidate.End) {
			return true
		}
	}
	return false
}
