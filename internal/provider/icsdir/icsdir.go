// Package icsdir is a file-backed calendar store provider: every
// <account>.ics file in a directory is one store whose root holds a
// single Calendar folder. It lets the tool run against exported mailbox
// calendars without a live mail client.
package icsdir

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	appLog "calsync/internal/log"
	"calsync/internal/model"
	"calsync/internal/provider"
)

// Provider reads and appends calendar items in per-store .ics files.
type Provider struct {
	dir    string
	stores []*model.Store
	files  map[*model.Folder]*storeFile // Calendar folder -> backing file
}

type storeFile struct {
	path string
	cal  *ical.Calendar
}

var _ provider.Provider = (*Provider)(nil)

// Open scans dir for .ics files and builds one store per file. The store
// display name is the file name without the extension, so
// "alice@example.com.ics" becomes the account "alice@example.com".
func Open(dir string) (*Provider, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("opening calendar dir: %w", err)
	}

	p := &Provider{
		dir:   dir,
		files: make(map[*model.Folder]*storeFile),
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".ics") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		store, sf, err := loadStore(path, strings.TrimSuffix(entry.Name(), ".ics"))
		if err != nil {
			// A broken file is skipped; the remaining stores still load.
			appLog.Error("skipping unreadable calendar file", err, "path", path)
			continue
		}
		p.stores = append(p.stores, store)
		p.files[store.Root.Folders[0]] = sf
	}

	return p, nil
}

func loadStore(path, displayName string) (*model.Store, *storeFile, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, nil, err
	}

	root := &model.Folder{Name: displayName}
	calFolder := root.AddChild(&model.Folder{Name: model.CalendarFolderName})
	calFolder.Items = parseEvents(cal, path)

	store := &model.Store{DisplayName: displayName, Root: root}
	return store, &storeFile{path: path, cal: cal}, nil
}

// parseEvents converts the calendar's VEVENTs into model events. Base
// events and RECURRENCE-ID overrides are grouped by UID first, then the
// overrides become replacement exceptions on their series' pattern.
func parseEvents(cal *ical.Calendar, path string) []*model.CalendarEvent {
	type override struct {
		recurrenceID time.Time
		event        *model.CalendarEvent
	}

	bases := make([]*ical.VEvent, 0)
	overrides := make(map[string][]override)

	for _, ve := range cal.Events() {
		uid := propValue(ve, ical.ComponentPropertyUniqueId)
		if uid == "" {
			appLog.Warn("skipping VEVENT without UID", "path", path)
			continue
		}
		if rid := propValue(ve, "RECURRENCE-ID"); rid != "" {
			t, err := parseICSTime(rid)
			if err != nil {
				appLog.Error("skipping override with bad RECURRENCE-ID", err, "uid", uid, "path", path)
				continue
			}
			start, end := eventTimes(ve)
			overrides[uid] = append(overrides[uid], override{
				recurrenceID: t,
				event: &model.CalendarEvent{
					Subject: propValue(ve, ical.ComponentPropertySummary),
					Start:   start,
					End:     end,
				},
			})
			continue
		}
		bases = append(bases, ve)
	}

	items := make([]*model.CalendarEvent, 0, len(bases))
	for _, ve := range bases {
		uid := propValue(ve, ical.ComponentPropertyUniqueId)
		start, end := eventTimes(ve)
		item := &model.CalendarEvent{
			Subject: propValue(ve, ical.ComponentPropertySummary),
			Start:   start,
			End:     end,
		}

		if raw := propValue(ve, ical.ComponentPropertyRrule); raw != "" {
			pattern, err := provider.NewRRulePattern(raw, start, end.Sub(start), item.Subject)
			if err != nil {
				appLog.Error("skipping series with bad RRULE", err, "uid", uid, "rrule", raw, "path", path)
				continue
			}
			for _, ex := range exDates(ve) {
				pattern.AddDeletedDate(ex.In(start.Location()))
			}
			for _, ov := range overrides[uid] {
				pattern.AddReplacement(ov.recurrenceID, ov.event)
			}
			item.IsRecurring = true
			item.Pattern = pattern
		}

		items = append(items, item)
	}

	return items
}

func (p *Provider) ListStores() []*model.Store {
	return p.stores
}

func (p *Provider) RootFolder(store *model.Store) (*model.Folder, error) {
	if store.Root == nil {
		return nil, fmt.Errorf("store %q: %w", store.DisplayName, provider.ErrFolderNotFound)
	}
	return store.Root, nil
}

func (p *Provider) FolderByName(parent *model.Folder, name string) (*model.Folder, error) {
	for _, child := range parent.Folders {
		if child.Name == name {
			return child, nil
		}
	}
	return nil, fmt.Errorf("%q under %q: %w", name, parent.Name, provider.ErrFolderNotFound)
}

func (p *Provider) ListItems(folder *model.Folder, filter provider.ItemFilter) ([]*model.CalendarEvent, error) {
	items := make([]*model.CalendarEvent, 0, len(folder.Items))
	for _, ev := range folder.Items {
		if filter.Matches(ev) {
			items = append(items, ev)
		}
	}
	return items, nil
}

// CreateCalendarItem appends a VEVENT to the folder's backing file and
// rewrites it atomically.
func (p *Provider) CreateCalendarItem(folder *model.Folder, subject string, start, end time.Time) (*model.CalendarEvent, error) {
	sf, ok := p.files[folder]
	if !ok {
		return nil, fmt.Errorf("folder %q has no backing calendar file", folder.Name)
	}

	ve := sf.cal.AddEvent(uuid.NewString())
	ve.SetDtStampTime(time.Now().UTC())
	ve.SetStartAt(start)
	ve.SetEndAt(end)
	ve.SetSummary(subject)

	if err := writeAtomic(sf.path, []byte(sf.cal.Serialize())); err != nil {
		return nil, fmt.Errorf("saving %s: %w", sf.path, err)
	}

	ev := &model.CalendarEvent{Subject: subject, Start: start, End: end}
	folder.Items = append(folder.Items, ev)
	return ev, nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".calsync-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func propValue(ve *ical.VEvent, name ical.ComponentProperty) string {
	if p := ve.GetProperty(name); p != nil {
		return p.Value
	}
	return ""
}

func eventTimes(ve *ical.VEvent) (time.Time, time.Time) {
	start, _ := ve.GetStartAt()
	end, err := ve.GetEndAt()
	if err != nil || end.IsZero() {
		end = start.Add(time.Hour)
	}
	return start, end
}

func exDates(ve *ical.VEvent) []time.Time {
	var out []time.Time
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part); err == nil {
				out = append(out, t)
			}
		}
	}
	return out
}

// parseICSTime parses the basic ICS date/date-time forms used by EXDATE
// and RECURRENCE-ID values.
func parseICSTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, time.Local)
	}
	return time.ParseInLocation("20060102", v, time.Local)
}
