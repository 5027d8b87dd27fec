// Package provider defines the contract against the external calendar
// store (the desktop mail client's object model, or a stand-in). All
// reads and writes against calendar folders go through this interface so
// the sync engine can be exercised without a live mail client.
package provider

import (
	"errors"
	"time"

	"calsync/internal/model"
)

var (
	// ErrProviderUnavailable means the store provider handle could not be
	// acquired within the retry budget.
	ErrProviderUnavailable = errors.New("calendar store provider unavailable")

	// ErrFolderNotFound means a store lacks the requested folder.
	ErrFolderNotFound = errors.New("folder not found")
)

// Provider is the calendar store provider: a source of mail account
// stores and the operations to read and append calendar items.
type Provider interface {
	// ListStores returns all configured mail accounts.
	ListStores() []*model.Store

	// RootFolder returns the root of a store's folder tree.
	RootFolder(store *model.Store) (*model.Folder, error)

	// FolderByName returns the direct child of parent with the given
	// name, or ErrFolderNotFound.
	FolderByName(parent *model.Folder, name string) (*model.Folder, error)

	// ListItems returns the folder's calendar items matching the filter.
	// Recurring series are always included; the filter bounds concrete
	// single items only.
	ListItems(folder *model.Folder, filter ItemFilter) ([]*model.CalendarEvent, error)

	// CreateCalendarItem appends a new single appointment to the folder
	// and persists it. Used against the destination calendar only.
	CreateCalendarItem(folder *model.Folder, subject string, start, end time.Time) (*model.CalendarEvent, error)
}
