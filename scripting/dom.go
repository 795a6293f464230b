package scripting

import (
	"fmt"

	"annotlib/document"
	"annotlib/observability"
)

// StoreDOM adapts a document.Store to the script-facing DOM. Mutations route
// through the store so history and live-copy discipline are preserved.
type StoreDOM struct {
	store  *document.Store
	logger observability.Logger
}

// NewStoreDOM wraps the store. Alerts are logged through l.
func NewStoreDOM(store *document.Store, l observability.Logger) *StoreDOM {
	if l == nil {
		l = observability.NopLogger{}
	}
	return &StoreDOM{store: store, logger: l}
}

func (d *StoreDOM) PageCount() int { return d.store.PageCount() }

func (d *StoreDOM) ActivePage() int { return d.store.ActiveIndex() }

func (d *StoreDOM) SwitchPage(index int) error { return d.store.SwitchPage(index) }

func (d *StoreDOM) Alert(message string) {
	d.logger.Info("script alert", observability.String("message", message))
}

func (d *StoreDOM) GetPage(index int) (PageProxy, error) {
	if index < 0 || index >= d.store.PageCount() {
		return nil, fmt.Errorf("page %d out of range", index)
	}
	return &storePage{dom: d, index: index}, nil
}

type storePage struct {
	dom   *StoreDOM
	index int
}

func (p *storePage) GetIndex() int { return p.index }

// activate switches the store to this page so mutations land on the live
// working copy. Page switches flush, so this is safe mid-script.
func (p *storePage) activate() error {
	if p.dom.store.ActiveIndex() == p.index {
		return nil
	}
	return p.dom.store.SwitchPage(p.index)
}

func (p *storePage) BoxCount() int {
	if p.dom.store.ActiveIndex() == p.index {
		return len(p.dom.store.LiveBoxes())
	}
	page, err := p.dom.store.Page(p.index)
	if err != nil {
		return 0
	}
	return len(page.Boxes)
}

func (p *storePage) AddTextBox(text string, left, top float64) string {
	if err := p.activate(); err != nil {
		return ""
	}
	b := p.dom.store.AddTextBox(left, top)
	if text != "" {
		if err := p.dom.store.SetTextBoxText(b.ID, text); err != nil {
			return ""
		}
	}
	return b.ID
}

func (p *storePage) SetBoxText(id, text string) error {
	if err := p.activate(); err != nil {
		return err
	}
	return p.dom.store.SetTextBoxText(id, text)
}
