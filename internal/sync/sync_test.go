package sync_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calsync/internal/dedupe"
	"calsync/internal/model"
	"calsync/internal/provider"
	"calsync/internal/provider/memory"
	"calsync/internal/sync"
)

func destinationStore(name string) (*model.Store, *model.Folder) {
	root := &model.Folder{Name: name}
	cal := root.AddChild(&model.Folder{Name: model.CalendarFolderName})
	return &model.Store{DisplayName: name, Root: root}, cal
}

func sourceStore(name string, items ...*model.CalendarEvent) *model.Store {
	root := &model.Folder{Name: name}
	cal := root.AddChild(&model.Folder{Name: model.CalendarFolderName})
	cal.Items = items
	return &model.Store{DisplayName: name, Root: root}
}

func baseOptions(now time.Time) sync.Options {
	return sync.Options{
		Window:      model.NewWindow(now, 1, 7),
		Destination: "me@example.com",
		Exclusions:  []string{"Public Folders", "Shared"},
		Policy:      dedupe.PolicySubjectTime,
	}
}

func TestRunDryRun(t *testing.T) {
	now := time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC)
	tomorrow := now.AddDate(0, 0, 1)

	dest, destCal := destinationStore("me@example.com")
	bob := sourceStore("Bob", &model.CalendarEvent{
		Subject: "Sync",
		Start:   tomorrow,
		End:     tomorrow.Add(time.Hour),
	})
	prov := memory.New(dest, bob)

	var out bytes.Buffer
	opts := baseOptions(now)
	opts.DryRun = true

	report, err := sync.New(prov, &out).Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 1, report.WouldCreate)
	assert.Zero(t, report.Created)
	assert.Equal(t, []string{"Would create: Bob : Sync"}, report.Lines)
	assert.Equal(t, "Would create: Bob : Sync\n", out.String())
	assert.Empty(t, destCal.Items, "dry-run must not create destination items")
}

func TestRunIdempotence(t *testing.T) {
	now := time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC)
	tomorrow := now.AddDate(0, 0, 1)

	dest, destCal := destinationStore("me@example.com")
	bob := sourceStore("Bob", &model.CalendarEvent{
		Subject: "Sync",
		Start:   tomorrow,
		End:     tomorrow.Add(time.Hour),
	})
	prov := memory.New(dest, bob)
	engine := sync.New(prov, &bytes.Buffer{})

	first, err := engine.Run(context.Background(), baseOptions(now))
	require.NoError(t, err)
	assert.Equal(t, 1, first.Created)
	require.Len(t, destCal.Items, 1)
	assert.Equal(t, "Bob : Sync", destCal.Items[0].Subject)

	second, err := engine.Run(context.Background(), baseOptions(now))
	require.NoError(t, err)
	assert.Zero(t, second.Created)
	assert.Equal(t, 1, second.Skipped)
	assert.Len(t, destCal.Items, 1)
}

func TestRunExpandsRecurringSeries(t *testing.T) {
	now := time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC)
	seriesStart := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC) // a Monday

	pattern, err := provider.NewRRulePattern("FREQ=WEEKLY;BYDAY=MO", seriesStart, 30*time.Minute, "Standup")
	require.NoError(t, err)

	dest, destCal := destinationStore("me@example.com")
	bob := sourceStore("Bob", &model.CalendarEvent{
		Subject:     "Standup",
		Start:       seriesStart,
		End:         seriesStart.Add(30 * time.Minute),
		IsRecurring: true,
		Pattern:     pattern,
	})
	prov := memory.New(dest, bob)

	// Window Feb 1 .. Feb 9 contains the Mondays Feb 2 and Feb 9,
	// although the series start itself is outside the window.
	report, err := sync.New(prov, &bytes.Buffer{}).Run(context.Background(), baseOptions(now))
	require.NoError(t, err)

	assert.Equal(t, 2, report.Created)
	assert.Len(t, destCal.Items, 2)
}

func TestRunWindowFiltersSingleItems(t *testing.T) {
	now := time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC)
	old := now.AddDate(0, 0, -10)

	dest, destCal := destinationStore("me@example.com")
	bob := sourceStore("Bob", &model.CalendarEvent{
		Subject: "Ancient",
		Start:   old,
		End:     old.Add(time.Hour),
	})
	prov := memory.New(dest, bob)

	report, err := sync.New(prov, &bytes.Buffer{}).Run(context.Background(), baseOptions(now))
	require.NoError(t, err)
	assert.Zero(t, report.Created)
	assert.Empty(t, destCal.Items)
}

func TestRunDestinationMissing(t *testing.T) {
	bob := sourceStore("Bob")
	prov := memory.New(bob)

	_, err := sync.New(prov, &bytes.Buffer{}).Run(context.Background(), baseOptions(time.Now()))
	assert.ErrorIs(t, err, sync.ErrDestinationNotFound)
}

func TestRunDestinationWithoutCalendarFolder(t *testing.T) {
	root := &model.Folder{Name: "me@example.com"}
	root.AddChild(&model.Folder{Name: "Inbox"})
	dest := &model.Store{DisplayName: "me@example.com", Root: root}
	prov := memory.New(dest)

	_, err := sync.New(prov, &bytes.Buffer{}).Run(context.Background(), baseOptions(time.Now()))
	assert.ErrorIs(t, err, sync.ErrDestinationNotFound)
}

func TestRunSkipsBrokenSourceStore(t *testing.T) {
	now := time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC)
	tomorrow := now.AddDate(0, 0, 1)

	dest, destCal := destinationStore("me@example.com")
	broken := &model.Store{DisplayName: "Broken"} // no root folder
	bob := sourceStore("Bob", &model.CalendarEvent{
		Subject: "Sync",
		Start:   tomorrow,
		End:     tomorrow.Add(time.Hour),
	})
	prov := memory.New(dest, broken, bob)

	report, err := sync.New(prov, &bytes.Buffer{}).Run(context.Background(), baseOptions(now))
	require.NoError(t, err, "a broken store must not abort the run")
	assert.Equal(t, 1, report.Created)
	assert.Len(t, destCal.Items, 1)
}

func TestRunCreationFailureContinues(t *testing.T) {
	now := time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC)
	tomorrow := now.AddDate(0, 0, 1)

	dest, destCal := destinationStore("me@example.com")
	bob := sourceStore("Bob",
		&model.CalendarEvent{Subject: "First", Start: tomorrow, End: tomorrow.Add(time.Hour)},
		&model.CalendarEvent{Subject: "Second", Start: tomorrow.Add(2 * time.Hour), End: tomorrow.Add(3 * time.Hour)},
	)
	prov := memory.New(dest, bob)
	prov.CreateHook = func(subject string) error {
		if subject == "Bob : First" {
			return errors.New("store rejected the save")
		}
		return nil
	}

	report, err := sync.New(prov, &bytes.Buffer{}).Run(context.Background(), baseOptions(now))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Created)
	require.Len(t, destCal.Items, 1)
	assert.Equal(t, "Bob : Second", destCal.Items[0].Subject)
}

func TestRunHonorsExclusionsAndExtraFolders(t *testing.T) {
	now := time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC)
	tomorrow := now.AddDate(0, 0, 1)

	dest, destCal := destinationStore("me@example.com")

	root := &model.Folder{Name: "Bob"}
	shared := root.AddChild(&model.Folder{Name: "Shared Calendars"})
	nested := shared.AddChild(&model.Folder{Name: "Calendar"})
	nested.Items = []*model.CalendarEvent{
		{Subject: "Nested", Start: tomorrow, End: tomorrow.Add(time.Hour)},
	}
	team := root.AddChild(&model.Folder{Name: "Team Events"})
	team.Items = []*model.CalendarEvent{
		{Subject: "Offsite", Start: tomorrow, End: tomorrow.Add(time.Hour)},
	}
	bob := &model.Store{DisplayName: "Bob", Root: root}

	prov := memory.New(dest, bob)
	opts := baseOptions(now)
	opts.ExtraFolders = []string{"Team Events"}
	opts.Exclusions = []string{"shared"}

	report, err := sync.New(prov, &bytes.Buffer{}).Run(context.Background(), opts)
	require.NoError(t, err)

	// "Shared Calendars" is excluded as a source, but its nested
	// Calendar child is still reached.
	assert.Equal(t, 2, report.Created)
	subjects := []string{destCal.Items[0].Subject, destCal.Items[1].Subject}
	assert.Contains(t, subjects, "Bob : Nested")
	assert.Contains(t, subjects, "Bob : Offsite")
}

func TestRunAbbreviatedSubjects(t *testing.T) {
	now := time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC)
	tomorrow := now.AddDate(0, 0, 1)

	dest, destCal := destinationStore("me@example.com")
	alice := sourceStore("alice@example.com", &model.CalendarEvent{
		Subject: "Weekly Standup Meeting",
		Start:   tomorrow,
		End:     tomorrow.Add(time.Hour),
	})
	prov := memory.New(dest, alice)

	opts := baseOptions(now)
	opts.Abbreviate = true

	report, err := sync.New(prov, &bytes.Buffer{}).Run(context.Background(), opts)
	require.NoError(t, err)
	require.Equal(t, 1, report.Created)
	assert.Equal(t, "EX : Weekly", destCal.Items[0].Subject)
}

func TestRunPreseededDuplicate(t *testing.T) {
	now := time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC)
	tomorrow := now.AddDate(0, 0, 1)

	dest, destCal := destinationStore("me@example.com")
	destCal.Items = []*model.CalendarEvent{
		{Subject: "Bob : Sync", Start: tomorrow, End: tomorrow.Add(time.Hour)},
	}
	bob := sourceStore("Bob", &model.CalendarEvent{
		Subject: "Sync",
		Start:   tomorrow,
		End:     tomorrow.Add(time.Hour),
	})
	prov := memory.New(dest, bob)

	report, err := sync.New(prov, &bytes.Buffer{}).Run(context.Background(), baseOptions(now))
	require.NoError(t, err)
	assert.Zero(t, report.Created)
	assert.Equal(t, 1, report.Skipped)
	assert.Len(t, destCal.Items, 1)
}
