// Package document implements the multi-page document store. The store owns
// the single live working copy: the active page's edit layer and text box
// list are mirrored into mutable buffers, and the stored page record is stale
// until the next sync point. Flush-then-load at page switch is the only place
// the two reconcile.
package document

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"

	"annotlib/annotation"
	"annotlib/history"
	"annotlib/observability"
)

// MaxPageEdge is the dimension cap applied to the longer side of a loaded
// image, preserving aspect ratio.
const MaxPageEdge = 4096

// DefaultCoalesceInterval is the quiet period after which a burst of text
// edits collapses into one history snapshot.
const DefaultCoalesceInterval = 500 * time.Millisecond

// ErrLastPage is returned when deleting the sole remaining page; the refusal
// is surfaced to the user rather than attempted.
var ErrLastPage = errors.New("cannot delete the only page")

// ErrBoxNotFound is returned for operations on an unknown text box id.
var ErrBoxNotFound = errors.New("text box not found")

// Page is the persisted record of one document unit. For the active page the
// record is stale between sync points; the store's live buffers are the sole
// truth until the next flush.
type Page struct {
	ID        string
	Width     int
	Height    int
	Base      *image.RGBA // immutable after creation
	EditLayer *image.RGBA // last-flushed paint overlay
	Boxes     []annotation.TextBox
	History   *history.Manager
}

// Point is a pointer position in page coordinates.
type Point struct {
	X, Y float64
}

// Store holds the ordered pages and the live working copy of the active one.
type Store struct {
	mu sync.Mutex

	pages  []*Page
	active int

	liveLayer *image.RGBA
	liveBoxes []annotation.TextBox

	coalesce    func(func())
	pendingText bool
	textGen     uint64

	logger observability.Logger
	limit  int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for defensive-repair warnings.
func WithLogger(l observability.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithUndoLimit overrides the per-page undo stack cap.
func WithUndoLimit(n int) Option {
	return func(s *Store) { s.limit = n }
}

// WithCoalesceInterval overrides the text-edit debounce quiet period.
func WithCoalesceInterval(d time.Duration) Option {
	return func(s *Store) { s.coalesce = debounce.New(d) }
}

// NewStore returns an empty store. The first CreatePage call establishes the
// active page.
func NewStore(opts ...Option) *Store {
	s := &Store{
		active:   -1,
		coalesce: debounce.New(DefaultCoalesceInterval),
		logger:   observability.NopLogger{},
		limit:    history.DefaultLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreatePage adds a page from the given image, clamping the longer side to
// MaxPageEdge while preserving aspect ratio. The page gets a transparent edit
// layer, an empty box list and a seeded initial snapshot, and becomes active.
func (s *Store) CreatePage(img image.Image) (string, error) {
	if img == nil {
		return "", fmt.Errorf("create page: nil image")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	base := scaleToLimit(img, MaxPageEdge)
	b := base.Bounds()
	page := &Page{
		ID:        uuid.NewString(),
		Width:     b.Dx(),
		Height:    b.Dy(),
		Base:      base,
		EditLayer: image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy())),
		History:   history.NewManagerWithLimit(s.limit),
	}
	page.History.Push(history.Capture(history.KindInitial, page.EditLayer, nil))

	if s.active >= 0 {
		s.flush()
	}
	s.pages = append(s.pages, page)
	s.load(len(s.pages) - 1)
	s.logger.Info("page created",
		observability.String("page", page.ID),
		observability.Int("width", page.Width),
		observability.Int("height", page.Height))
	return page.ID, nil
}

// scaleToLimit copies img into an RGBA buffer, downscaling so the longer side
// does not exceed limit.
func scaleToLimit(img image.Image, limit int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	longer := w
	if h > longer {
		longer = h
	}
	if longer <= limit {
		out := image.NewRGBA(image.Rect(0, 0, w, h))
		xdraw.Draw(out, out.Bounds(), img, b.Min, xdraw.Src)
		return out
	}
	nw, nh := w, h
	if w >= h {
		nw = limit
		nh = h * limit / w
	} else {
		nh = limit
		nw = w * limit / h
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	out := image.NewRGBA(image.Rect(0, 0, nw, nh))
	xdraw.CatmullRom.Scale(out, out.Bounds(), img, b, xdraw.Src, nil)
	return out
}

// SwitchPage flushes the active page's live buffers into its record, then
// loads the target page. This is the sync point described in the package
// comment.
func (s *Store) SwitchPage(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.pages) {
		return fmt.Errorf("switch page: index %d out of range [0,%d)", index, len(s.pages))
	}
	s.flush()
	s.load(index)
	return nil
}

// DeletePage removes a page. Deleting the sole remaining page is refused.
// The active index clamps to the remaining pages and that page is loaded;
// when the deleted page was the active one the flush step is skipped, since
// its live state has no surviving record to flush into.
func (s *Store) DeletePage(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.pages) {
		return fmt.Errorf("delete page: index %d out of range [0,%d)", index, len(s.pages))
	}
	if len(s.pages) == 1 {
		return ErrLastPage
	}
	wasActive := index == s.active
	if !wasActive {
		s.flush()
	}
	removed := s.pages[index]
	s.pages = append(s.pages[:index], s.pages[index+1:]...)

	next := s.active
	if wasActive {
		next = index
	} else if index < s.active {
		next = s.active - 1
	}
	if next > len(s.pages)-1 {
		next = len(s.pages) - 1
	}
	s.load(next)
	s.logger.Info("page deleted", observability.String("page", removed.ID))
	return nil
}

// flush writes the live buffers into the active page record. A pending
// coalesced text snapshot commits here, while its page is still the active
// one; the debounce timer must never land it on whichever page comes next.
func (s *Store) flush() {
	if s.pendingText {
		s.pendingText = false
		s.snapshot(history.KindTextEdit)
	}
	s.textGen++
	p := s.pages[s.active]
	p.EditLayer = history.CloneRGBA(s.liveLayer)
	p.Boxes = annotation.CloneBoxes(s.liveBoxes)
}

// load replaces the live buffers with copies of the target page's record and
// makes it active. Malformed records are repaired in place with empty state;
// processing continues.
func (s *Store) load(index int) {
	p := s.pages[index]
	if p.EditLayer == nil {
		s.logger.Warn("page has no edit layer, repairing",
			observability.String("page", p.ID))
		p.EditLayer = image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))
		p.Boxes = nil
	}
	if p.History == nil {
		s.logger.Warn("page has no history, reseeding",
			observability.String("page", p.ID))
		p.History = history.NewManagerWithLimit(s.limit)
		p.History.Push(history.Capture(history.KindInitial, p.EditLayer, p.Boxes))
	}
	// Covers the delete-active-page path, which loads without flushing: the
	// deleted page's pending text snapshot dies with it.
	s.pendingText = false
	s.textGen++
	s.liveLayer = history.CloneRGBA(p.EditLayer)
	s.liveBoxes = annotation.CloneBoxes(p.Boxes)
	s.active = index
}

// newLayerLike allocates an empty edit layer matching the page dimensions.
func newLayerLike(p *Page) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))
}

// Flush syncs the active page record with the live buffers without switching
// pages. Export uses this so page records are current when read.
func (s *Store) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active >= 0 {
		s.flush()
	}
}

// PageCount returns the number of pages.
func (s *Store) PageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pages)
}

// ActiveIndex returns the index of the active page, or -1 for an empty store.
func (s *Store) ActiveIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Page returns the stored record at index. For the active page the record
// reflects the last sync point, not unflushed live edits.
func (s *Store) Page(index int) (*Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.pages) {
		return nil, fmt.Errorf("page: index %d out of range [0,%d)", index, len(s.pages))
	}
	return s.pages[index], nil
}

// LiveEditLayer exposes the live paint buffer for rendering. Callers must
// treat it as read-only; mutation goes through the paint operations.
func (s *Store) LiveEditLayer() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liveLayer
}

// LiveBoxes returns a value copy of the active page's text boxes.
func (s *Store) LiveBoxes() []annotation.TextBox {
	s.mu.Lock()
	defer s.mu.Unlock()
	return annotation.CloneBoxes(s.liveBoxes)
}

// ActiveHistory returns the history manager of the active page, or nil for
// an empty store.
func (s *Store) ActiveHistory() *history.Manager {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active < 0 {
		return nil
	}
	return s.pages[s.active].History
}
