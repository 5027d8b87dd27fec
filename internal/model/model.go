package model

import "time"

// CalendarFolderName is the canonical name of a calendar-bearing folder.
// Matching against it is case-sensitive and exact.
const CalendarFolderName = "Calendar"

// Store represents one mail account's data container. The display name is
// both the human-readable origin tag on copied events and the key used to
// identify the destination account.
type Store struct {
	DisplayName string
	Root        *Folder
}

// Folder is one node in a store's folder hierarchy. Parent is a
// back-reference only; ownership flows downward through Folders.
type Folder struct {
	Name    string
	Parent  *Folder
	Folders []*Folder
	Items   []*CalendarEvent
}

// AddChild appends c to f's children and sets its parent back-reference.
func (f *Folder) AddChild(c *Folder) *Folder {
	c.Parent = f
	f.Folders = append(f.Folders, c)
	return c
}

// RecurrencePattern materializes concrete instances of a recurring series.
type RecurrencePattern interface {
	// OccurrenceAt returns the occurrence starting at t, or false when the
	// pattern has no valid occurrence there. A miss is a normal result,
	// not an error.
	OccurrenceAt(t time.Time) (Occurrence, bool)

	// Exceptions returns the recorded deviations from the pattern.
	Exceptions() []Exception
}

// CalendarEvent is a single appointment, or a recurring series when
// IsRecurring is set (in which case Start/End describe the first instance
// and Pattern is non-nil).
type CalendarEvent struct {
	Subject     string
	Start       time.Time
	End         time.Time
	IsRecurring bool
	Pattern     RecurrencePattern
}

// Exception is a recorded deviation from a series' pattern for one
// specific original date: either a deletion or a replacement appointment.
type Exception struct {
	OriginalDate time.Time
	Deleted      bool
	Replacement  *CalendarEvent
}

// Occurrence is one concrete instance of an event. Occurrences are
// computed per run and never persisted.
type Occurrence struct {
	Subject string
	Start   time.Time
	End     time.Time
}

// Window is the date window considered for source events. It is computed
// once per run and stays fixed for the whole run.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow builds the window (now - beforeDays, now + afterDays).
func NewWindow(now time.Time, beforeDays, afterDays int) Window {
	return Window{
		Start: now.AddDate(0, 0, -beforeDays),
		End:   now.AddDate(0, 0, afterDays),
	}
}

// Contains reports whether t falls inside [w.Start, w.End].
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}
