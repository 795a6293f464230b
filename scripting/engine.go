// Package scripting embeds a JavaScript engine for document automation:
// batch annotation, page walks and scripted exports run against a controlled
// DOM rather than the store directly.
package scripting

import (
	"context"
)

// Engine represents a scripting engine (e.g., JavaScript).
type Engine interface {
	// Execute runs a script in the context of the registered document.
	Execute(ctx context.Context, script string) (interface{}, error)

	// RegisterDOM registers the document object model with the engine.
	RegisterDOM(dom DocumentDOM) error
}

// DocumentDOM exposes the annotation document to scripts. It is a safe,
// controlled API: scripts never hold raw store state.
type DocumentDOM interface {
	// PageCount returns the number of pages.
	PageCount() int

	// ActivePage returns the active page index (0-based).
	ActivePage() int

	// SwitchPage makes the page at index active.
	SwitchPage(index int) error

	// GetPage returns a page proxy by index (0-based).
	GetPage(index int) (PageProxy, error)

	// Alert surfaces a message to the user (if the host supports it).
	Alert(message string)
}

// PageProxy represents one page exposed to scripts.
type PageProxy interface {
	GetIndex() int
	BoxCount() int

	// AddTextBox creates a text box and returns its id.
	AddTextBox(text string, left, top float64) string

	// SetBoxText replaces the text of the box with the given id.
	SetBoxText(id, text string) error
}
