package provider

import (
	"time"

	"calsync/internal/model"
)

// Field names an event attribute a condition applies to.
type Field int

const (
	FieldStart Field = iota
	FieldEnd
	FieldSubject
)

// Op is a comparison operator.
type Op int

const (
	OpEq Op = iota
	OpGte
	OpLte
)

// Condition is one (field, operator, value) predicate. Time conditions
// fill Time, subject conditions fill Text. Conditions are structured on
// purpose: no query strings are ever built from event subjects, so
// subjects containing quotes cannot corrupt a lookup.
type Condition struct {
	Field Field
	Op    Op
	Time  time.Time
	Text  string
}

// ItemFilter is a conjunction of conditions applied by ListItems.
// The zero value matches everything.
type ItemFilter struct {
	Conditions []Condition
}

// StartWithin filters single items to those starting inside the window.
func StartWithin(w model.Window) ItemFilter {
	return ItemFilter{Conditions: []Condition{
		{Field: FieldStart, Op: OpGte, Time: w.Start},
		{Field: FieldStart, Op: OpLte, Time: w.End},
	}}
}

// SubjectEquals filters items to those with exactly this subject.
func SubjectEquals(subject string) ItemFilter {
	return ItemFilter{Conditions: []Condition{
		{Field: FieldSubject, Op: OpEq, Text: subject},
	}}
}

// Matches reports whether the event satisfies every condition. Recurring
// series always match: their concrete instances are only known after
// expansion, so bounding them by the series' defined start would lose
// occurrences inside the window.
func (f ItemFilter) Matches(ev *model.CalendarEvent) bool {
	if ev.IsRecurring {
		return true
	}
	for _, c := range f.Conditions {
		if !c.matches(ev) {
			return false
		}
	}
	return true
}

func (c Condition) matches(ev *model.CalendarEvent) bool {
	switch c.Field {
	case FieldSubject:
		return c.Op == OpEq && ev.Subject == c.Text
	case FieldStart:
		return c.compareTime(ev.Start)
	case FieldEnd:
		return c.compareTime(ev.End)
	}
	return false
}

func (c Condition) compareTime(t time.Time) bool {
	switch c.Op {
	case OpEq:
		return t.Equal(c.Time)
	case OpGte:
		return !t.Before(c.Time)
	case OpLte:
		return !t.After(c.Time)
	}
	return false
}
