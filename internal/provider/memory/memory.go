// Package memory is an in-memory calendar store provider. It backs the
// test suite and is the reference for how a real mail client binding
// should behave.
package memory

import (
	"fmt"
	"time"

	"calsync/internal/model"
	"calsync/internal/provider"
)

// Provider holds a fixed set of stores built directly from model values.
type Provider struct {
	stores []*model.Store

	// CreateHook, when set, runs before every CreateCalendarItem and can
	// veto it by returning an error. Tests use it to simulate a store
	// rejecting a save.
	CreateHook func(subject string) error
}

var _ provider.Provider = (*Provider)(nil)

func New(stores ...*model.Store) *Provider {
	return &Provider{stores: stores}
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

func (p *Provider) CreateCalendarItem(folder *model.Folder, subject string, start, end time.Time) (*model.CalendarEvent, error) {
	if p.CreateHook != nil {
		if err := p.CreateHook(subject); err != nil {
			return nil, err
		}
	}
	ev := &model.CalendarEvent{
		Subject: subject,
		Start:   start,
		End:     end,
	}
	folder.Items = append(folder.Items, ev)
	return ev, nil
}
