// Package placement holds the element model for a document session and the
// geometry that maps preview-raster coordinates into PDF point space.
package placement

import (
	"errors"

	"github.com/google/uuid"

	"solsign/internal/domain"
)

// DefaultPreviewScale matches the fixed scale the client renders page
// previews at.
const DefaultPreviewScale = 1.2

// Minimum element size in raster pixels, enforced on resize.
const (
	MinWidth  = 40.0
	MinHeight = 20.0
)

var (
	ErrPageNotRegistered = errors.New("page has not been rendered")
	ErrUnknownElement    = errors.New("unknown element")
	ErrEmptySize         = errors.New("element size must be positive")
)

// Kind discriminates what a placed element draws at export time.
type Kind string

const (
	KindSignatureImage Kind = "signature-image"
	KindFreeText       Kind = "free-text"
	KindDateStamp      Kind = "date-stamp"
)

// Size is a width/height pair, in raster pixels or PDF points depending on
// context.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect is a positioned box. In raster space the origin is top-left; in PDF
// space it is bottom-left.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Element is one user-added annotation bound to a page of the session's
// document. Position and size are in preview-raster pixels, top-left origin.
// PageIndex is 1-based: page one of the document is index 1.
type Element struct {
	ID        string `json:"id"`
	Kind      Kind   `json:"kind"`
	Text      string `json:"text,omitempty"`
	Image     []byte `json:"image,omitempty"`
	PageIndex int    `json:"pageIndex"`

	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Session owns the element set for one loaded document. Pages must be
// registered (with their preview size) before elements can target them;
// replacing the document means starting a new session.
type Session struct {
	pages    map[int]Size
	elements []*Element
	selected string
}

func NewSession() *Session {
	return &Session{pages: make(map[int]Size)}
}

// RegisterPage records the preview raster size of a rendered page. Page
// numbers are 1-based, matching element PageIndex.
func (s *Session) RegisterPage(page int, size Size) {
	if page < 1 || size.Width <= 0 || size.Height <= 0 {
		return
	}
	s.pages[page] = size
}

// PageSize returns the registered preview size for a page.
func (s *Session) PageSize(page int) (Size, bool) {
	size, ok := s.pages[page]
	return size, ok
}

func defaultSize(kind Kind) (w, h float64) {
	switch kind {
	case KindSignatureImage:
		return 160, 60
	case KindDateStamp:
		return 110, 24
	default:
		return 140, 32
	}
}

// AddElement inserts a new element on the given page at the default anchor,
// the bottom-left region of the preview. Adding to a page that was never
// rendered is rejected: there is no page size to anchor against.
func (s *Session) AddElement(kind Kind, text string, image []byte, page int) (*Element, error) {
	size, ok := s.pages[page]
	if !ok {
		return nil, ErrPageNotRegistered
	}
	w, h := defaultSize(kind)
	anchorY := size.Height - 100
	if anchorY < 0 {
		anchorY = 0
	}
	el := &Element{
		ID:        uuid.NewString(),
		Kind:      kind,
		Text:      text,
		Image:     image,
		PageIndex: page,
		X:         50,
		Y:         anchorY,
		Width:     w,
		Height:    h,
	}
	s.elements = append(s.elements, el)
	s.selected = el.ID
	return el, nil
}

// Elements returns the element list in insertion order.
func (s *Session) Elements() []*Element {
	return s.elements
}

// Selected returns the id of the currently selected element, if any.
func (s *Session) Selected() string {
	return s.selected
}

func (s *Session) find(id string) *Element {
	for _, el := range s.elements {
		if el.ID == id {
			return el
		}
	}
	return nil
}

// MoveBy shifts an element by a screen-space delta. The result is clamped to
// be non-negative; no upper bound against the right/bottom page edge is
// applied (the preview restricts drags there already).
func (s *Session) MoveBy(id string, dx, dy float64) error {
	el := s.find(id)
	if el == nil {
		return ErrUnknownElement
	}
	el.X = max0(el.X + dx)
	el.Y = max0(el.Y + dy)
	s.selected = id
	return nil
}

// Resize applies a resize gesture: deltaLeft/deltaTop move the top-left
// corner (keeping the opposite edge fixed), newWidth/newHeight are the
// resulting dimensions, floored at 40x20. When a dimension clamps to the
// minimum, the corner delta shrinks by the same amount so the opposite edge
// stays put.
func (s *Session) Resize(id string, deltaLeft, deltaTop, newWidth, newHeight float64) error {
	el := s.find(id)
	if el == nil {
		return ErrUnknownElement
	}
	w := maxf(MinWidth, newWidth)
	h := maxf(MinHeight, newHeight)
	if deltaLeft != 0 {
		deltaLeft += newWidth - w
	}
	if deltaTop != 0 {
		deltaTop += newHeight - h
	}
	el.X = el.X + deltaLeft
	el.Y = el.Y + deltaTop
	el.Width = w
	el.Height = h
	s.selected = id
	return nil
}

// Remove deletes an element. If it was the selected element the selection
// clears.
func (s *Session) Remove(id string) error {
	for i, el := range s.elements {
		if el.ID == id {
			s.elements = append(s.elements[:i], s.elements[i+1:]...)
			if s.selected == id {
				s.selected = ""
			}
			return nil
		}
	}
	return ErrUnknownElement
}

// MapToPDFSpace converts an element's raster-space geometry to PDF points on
// a page of the given size. The horizontal and vertical ratios are derived
// from the preview size, which already bakes in the preview render scale, and
// the vertical axis flips because PDF space has a bottom-left origin.
//
// An element whose page exceeds the target document's page count is orphaned:
// the caller gets an error rather than a silent clamp to the last page.
func MapToPDFSpace(el *Element, preview Size, pdf Size, totalPages int) (Rect, error) {
	if el.PageIndex < 1 || el.PageIndex > totalPages {
		return Rect{}, domain.ErrElementOrphaned
	}
	if el.Width <= 0 || el.Height <= 0 {
		return Rect{}, ErrEmptySize
	}
	if preview.Width <= 0 || preview.Height <= 0 {
		return Rect{}, ErrPageNotRegistered
	}
	rx := pdf.Width / preview.Width
	ry := pdf.Height / preview.Height
	w := el.Width * rx
	h := el.Height * ry
	x := el.X * rx
	y := pdf.Height - el.Y*ry - h
	return Rect{X: x, Y: y, Width: w, Height: h}, nil
}

// PreviewSizeFor derives the preview raster size of a PDF page rendered at
// the given scale, for callers that only know the PDF geometry.
func PreviewSizeFor(pdf Size, scale float64) Size {
	if scale <= 0 {
		scale = DefaultPreviewScale
	}
	return Size{Width: pdf.Width * scale, Height: pdf.Height * scale}
}

func max0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
