// Package sync ties folder walking, recurrence expansion, subject
// transformation and duplicate detection together into one run against a
// calendar store provider.
package sync

import (
	"context"
	"errors"
	"fmt"
	"io"

	"calsync/internal/dedupe"
	"calsync/internal/expand"
	appLog "calsync/internal/log"
	"calsync/internal/model"
	"calsync/internal/provider"
	"calsync/internal/subject"
	"calsync/internal/walker"
)

// ErrDestinationNotFound means no store matches the destination display
// name, or the destination store has no Calendar folder. Fatal for a run.
var ErrDestinationNotFound = errors.New("destination calendar not found")

// Options configure one run. The window is computed once by the caller
// and stays fixed for the whole run.
type Options struct {
	Window       model.Window
	Destination  string
	ExtraFolders []string
	Exclusions   []string
	DryRun       bool
	Abbreviate   bool
	Policy       dedupe.Policy
}

// Report accumulates per-run outcomes.
type Report struct {
	Created     int
	WouldCreate int
	Skipped     int
	Failed      int
	Lines       []string
}

// Engine runs the one-way source -> destination sync. Outcome lines go
// to out (normally stdout); diagnostics go to the log stream.
type Engine struct {
	prov provider.Provider
	out  io.Writer
}

func New(prov provider.Provider, out io.Writer) *Engine {
	return &Engine{prov: prov, out: out}
}

// Run copies window-bounded occurrences from every source store into the
// destination calendar, skipping duplicates. Existing destination items
// are never modified or removed; the only mutation is appending new items
// in live mode.
func (e *Engine) Run(ctx context.Context, opts Options) (*Report, error) {
	report := &Report{}

	dest, destCal, err := e.resolveDestination(opts.Destination)
	if err != nil {
		return nil, err
	}
	appLog.Debug("destination resolved",
		"store", dest.DisplayName,
		"window_start", opts.Window.Start,
		"window_end", opts.Window.End,
		"dry_run", opts.DryRun,
	)

	rules := walker.Rules{
		ExtraFolders: opts.ExtraFolders,
		Exclusions:   opts.Exclusions,
	}

	for _, store := range e.prov.ListStores() {
		if store.DisplayName == dest.DisplayName {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		e.syncStore(store, destCal, rules, opts, report)
	}

	return report, nil
}

func (e *Engine) resolveDestination(name string) (*model.Store, *model.Folder, error) {
	for _, store := range e.prov.ListStores() {
		if store.DisplayName != name {
			continue
		}
		root, err := e.prov.RootFolder(store)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: store %q has no root folder", ErrDestinationNotFound, name)
		}
		cal, err := e.prov.FolderByName(root, model.CalendarFolderName)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: store %q has no %s folder", ErrDestinationNotFound, name, model.CalendarFolderName)
		}
		return store, cal, nil
	}
	return nil, nil, fmt.Errorf("%w: no store named %q", ErrDestinationNotFound, name)
}

func (e *Engine) syncStore(store *model.Store, destCal *model.Folder, rules walker.Rules, opts Options, report *Report) {
	root, err := e.prov.RootFolder(store)
	if err != nil {
		// A store without the expected folders is skipped; the run
		// continues with the remaining stores.
		appLog.Warn("skipping store", "store", store.DisplayName, "err", err)
		return
	}

	folders := walker.Walk(root, rules)
	if len(folders) == 0 {
		appLog.Debug("no calendar folders in store", "store", store.DisplayName)
		return
	}

	for _, folder := range folders {
		items, err := e.prov.ListItems(folder, provider.StartWithin(opts.Window))
		if err != nil {
			appLog.Error("listing folder items failed", err,
				"store", store.DisplayName, "folder", folder.Name)
			continue
		}
		appLog.Debug("processing folder",
			"store", store.DisplayName, "folder", folder.Name, "items", len(items))

		occurrences := make([]model.Occurrence, 0, len(items))
		for _, item := range items {
			occurrences = append(occurrences, expand.Expand(item, opts.Window)...)
		}
		expand.SortOccurrences(occurrences)

		for _, occ := range occurrences {
			e.syncOccurrence(store, destCal, occ, opts, report)
		}
	}
}

func (e *Engine) syncOccurrence(store *model.Store, destCal *model.Folder, occ model.Occurrence, opts Options, report *Report) {
	subj := subject.Transform(occ.Subject, store.DisplayName, opts.Abbreviate)
	candidate := model.Occurrence{Subject: subj, Start: occ.Start, End: occ.End}

	// The destination is re-listed for every occurrence so items created
	// earlier in this run (or by a previous, interrupted one) count as
	// duplicates. Idempotence comes from this re-scan, not from state.
	existing, err := e.prov.ListItems(destCal, provider.SubjectEquals(subj))
	if err != nil {
		appLog.Error("destination lookup failed", err, "subject", subj)
		report.Failed++
		return
	}
	if dedupe.Exists(existing, candidate, opts.Policy) {
		appLog.Debug("duplicate, skipping", "subject", subj, "start", occ.Start)
		report.Skipped++
		return
	}

	if opts.DryRun {
		e.outcome(report, "Would create: "+subj)
		report.WouldCreate++
		return
	}

	if _, err := e.prov.CreateCalendarItem(destCal, subj, occ.Start, occ.End); err != nil {
		// One rejected save must not abort the run.
		appLog.Error("item creation failed", err, "subject", subj, "start", occ.Start)
		report.Failed++
		return
	}
	e.outcome(report, "Created: "+subj)
	report.Created++
}

func (e *Engine) outcome(report *Report, line string) {
	report.Lines = append(report.Lines, line)
	fmt.Fprintln(e.out, line)
}
