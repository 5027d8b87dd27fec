package provider

import (
	"time"

	"github.com/teambition/rrule-go"

	"calsync/internal/model"
)

// RRulePattern is a model.RecurrencePattern backed by an RRULE set. Both
// shipped providers hand these out for recurring series.
type RRulePattern struct {
	set        *rrule.Set
	duration   time.Duration
	subject    string
	exceptions []model.Exception
}

// NewRRulePattern parses raw (an RRULE string such as
// "FREQ=WEEKLY;BYDAY=MO") into a pattern anchored at dtstart. Each
// materialized occurrence carries the series subject and duration.
func NewRRulePattern(raw string, dtstart time.Time, duration time.Duration, subject string) (*RRulePattern, error) {
	r, err := rrule.StrToRRule(raw)
	if err != nil {
		return nil, err
	}
	r.DTStart(dtstart)

	var set rrule.Set
	set.RRule(r)

	return &RRulePattern{
		set:      &set,
		duration: duration,
		subject:  subject,
	}, nil
}

// AddDeletedDate records a deleted occurrence: the date is excluded from
// the rule set and surfaced as a deleted exception.
func (p *RRulePattern) AddDeletedDate(t time.Time) {
	p.set.ExDate(t)
	p.exceptions = append(p.exceptions, model.Exception{
		OriginalDate: t,
		Deleted:      true,
	})
}

// AddReplacement records a modified occurrence: the instance originally
// at originalDate was moved or retitled to the replacement appointment.
func (p *RRulePattern) AddReplacement(originalDate time.Time, replacement *model.CalendarEvent) {
	p.exceptions = append(p.exceptions, model.Exception{
		OriginalDate: originalDate,
		Replacement:  replacement,
	})
}

// OccurrenceAt reports the occurrence starting exactly at t, if the rule
// set generates one there.
func (p *RRulePattern) OccurrenceAt(t time.Time) (model.Occurrence, bool) {
	hits := p.set.Between(t, t, true)
	if len(hits) == 0 {
		return model.Occurrence{}, false
	}
	return model.Occurrence{
		Subject: p.subject,
		Start:   t,
		End:     t.Add(p.duration),
	}, true
}

func (p *RRulePattern) Exceptions() []model.Exception {
	return p.exceptions
}
