package placement

import (
	"errors"
	"math"
	"testing"

	"solsign/internal/domain"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s := NewSession()
	// A4 at the fixed 1.2 preview scale.
	s.RegisterPage(1, Size{Width: 595 * 1.2, Height: 842 * 1.2})
	return s
}

func inDelta(t *testing.T, want, got float64) {
	t.Helper()
	if math.Abs(want-got) > 1e-9 {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestAddElementRequiresRenderedPage(t *testing.T) {
	s := NewSession()
	if _, err := s.AddElement(KindSignatureImage, "", []byte{0x89}, 1); !errors.Is(err, ErrPageNotRegistered) {
		t.Fatalf("err = %v", err)
	}
}

func TestAddElementDefaults(t *testing.T) {
	s := newTestSession(t)
	el, err := s.AddElement(KindSignatureImage, "", []byte{0x89}, 1)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	pageH := 842 * 1.2
	if el.X != 50 || el.Y != pageH-100 {
		t.Fatalf("anchor = (%v, %v)", el.X, el.Y)
	}
	if el.Width != 160 || el.Height != 60 {
		t.Fatalf("size = %vx%v", el.Width, el.Height)
	}
	if s.Selected() != el.ID {
		t.Fatalf("selected = %q", s.Selected())
	}

	text, err := s.AddElement(KindFreeText, "John Hancock", nil, 1)
	if err != nil {
		t.Fatalf("add text: %v", err)
	}
	if text.Width >= el.Width {
		t.Fatalf("text width %v should be below signature width %v", text.Width, el.Width)
	}
	date, err := s.AddElement(KindDateStamp, "2026-08-30", nil, 1)
	if err != nil {
		t.Fatalf("add date: %v", err)
	}
	if date.Height >= text.Height {
		t.Fatalf("date height %v should be below text height %v", date.Height, text.Height)
	}
}

func TestMoveClampsLowerBoundOnly(t *testing.T) {
	s := newTestSession(t)
	el, err := s.AddElement(KindFreeText, "x", nil, 1)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := s.MoveBy(el.ID, -1e6, -1e6); err != nil {
		t.Fatalf("move: %v", err)
	}
	if el.X != 0 || el.Y != 0 {
		t.Fatalf("position = (%v, %v)", el.X, el.Y)
	}

	// No clamp against the right/bottom edge.
	if err := s.MoveBy(el.ID, 1e6, 1e6); err != nil {
		t.Fatalf("move: %v", err)
	}
	if el.X != 1e6 || el.Y != 1e6 {
		t.Fatalf("position = (%v, %v)", el.X, el.Y)
	}
}

func TestResizeEnforcesMinimum(t *testing.T) {
	s := newTestSession(t)
	el, err := s.AddElement(KindSignatureImage, "", []byte{1}, 1)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	x, y := el.X, el.Y

	if err := s.Resize(el.ID, 10, 5, 100, 30); err != nil {
		t.Fatalf("resize: %v", err)
	}
	if el.X != x+10 || el.Y != y+5 {
		t.Fatalf("corner = (%v, %v)", el.X, el.Y)
	}
	if el.Width != 100 || el.Height != 30 {
		t.Fatalf("size = %vx%v", el.Width, el.Height)
	}
}

func TestResizeClampKeepsOppositeEdgeFixed(t *testing.T) {
	s := newTestSession(t)
	el, err := s.AddElement(KindSignatureImage, "", []byte{1}, 1)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	right := el.X + el.Width
	bottom := el.Y + el.Height

	// Left/top drag past the minimum: the gesture asks for 1x5, the size
	// floors at 40x20, and the dragged corner must stop where the clamp does.
	if err := s.Resize(el.ID, el.Width-1, el.Height-5, 1, 5); err != nil {
		t.Fatalf("resize: %v", err)
	}
	if el.Width != MinWidth || el.Height != MinHeight {
		t.Fatalf("size = %vx%v", el.Width, el.Height)
	}
	if el.X+el.Width != right {
		t.Fatalf("right edge drifted: %v, want %v", el.X+el.Width, right)
	}
	if el.Y+el.Height != bottom {
		t.Fatalf("bottom edge drifted: %v, want %v", el.Y+el.Height, bottom)
	}

	// Right/bottom drag past the minimum: the top-left corner stays put.
	x, y := el.X, el.Y
	if err := s.Resize(el.ID, 0, 0, 1, 5); err != nil {
		t.Fatalf("resize: %v", err)
	}
	if el.X != x || el.Y != y {
		t.Fatalf("top-left corner drifted: (%v, %v), want (%v, %v)", el.X, el.Y, x, y)
	}
	if el.Width != MinWidth || el.Height != MinHeight {
		t.Fatalf("size = %vx%v", el.Width, el.Height)
	}
}

func TestRemoveClearsSelection(t *testing.T) {
	s := newTestSession(t)
	a, err := s.AddElement(KindFreeText, "a", nil, 1)
	if err != nil {
		t.Fatalf("add a: %v", err)
	}
	b, err := s.AddElement(KindFreeText, "b", nil, 1)
	if err != nil {
		t.Fatalf("add b: %v", err)
	}

	if err := s.Remove(b.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if s.Selected() != "" {
		t.Fatalf("selected = %q", s.Selected())
	}
	if len(s.Elements()) != 1 || s.Elements()[0].ID != a.ID {
		t.Fatalf("elements = %v", s.Elements())
	}

	if err := s.Remove(b.ID); !errors.Is(err, ErrUnknownElement) {
		t.Fatalf("second remove err = %v", err)
	}
}

func TestMapToPDFSpaceRoundTrip(t *testing.T) {
	pdf := Size{Width: 595, Height: 842}
	preview := PreviewSizeFor(pdf, 1.2)

	el := &Element{Kind: KindSignatureImage, PageIndex: 1, X: 50, Y: preview.Height - 100, Width: 160, Height: 60}
	rect, err := MapToPDFSpace(el, preview, pdf, 3)
	if err != nil {
		t.Fatalf("map: %v", err)
	}

	rx := pdf.Width / preview.Width
	ry := pdf.Height / preview.Height
	inDelta(t, el.X*rx, rect.X)
	inDelta(t, pdf.Height-el.Y*ry-el.Height*ry, rect.Y)

	// Inverse mapping reproduces the raster geometry.
	inDelta(t, el.X, rect.X/rx)
	inDelta(t, el.Y, (pdf.Height-rect.Y-rect.Height)/ry)
	inDelta(t, el.Width, rect.Width/rx)
	inDelta(t, el.Height, rect.Height/ry)
}

func TestMapToPDFSpaceFlipsYAxis(t *testing.T) {
	pdf := Size{Width: 500, Height: 1000}
	preview := Size{Width: 500, Height: 1000}

	// Element at the raster top maps near the PDF top (large Y).
	top := &Element{PageIndex: 1, X: 0, Y: 0, Width: 100, Height: 50}
	rect, err := MapToPDFSpace(top, preview, pdf, 1)
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if rect.Y != 950 {
		t.Fatalf("rect.Y = %v", rect.Y)
	}
}

func TestMapToPDFSpaceRejectsOrphans(t *testing.T) {
	pdf := Size{Width: 595, Height: 842}
	preview := PreviewSizeFor(pdf, 1.2)

	for _, page := range []int{0, 4, -1} {
		el := &Element{PageIndex: page, X: 10, Y: 10, Width: 50, Height: 50}
		if _, err := MapToPDFSpace(el, preview, pdf, 3); !errors.Is(err, domain.ErrElementOrphaned) {
			t.Fatalf("page %d: err = %v", page, err)
		}
	}

	// The last page is in bounds.
	el := &Element{PageIndex: 3, X: 10, Y: 10, Width: 50, Height: 50}
	if _, err := MapToPDFSpace(el, preview, pdf, 3); err != nil {
		t.Fatalf("last page: %v", err)
	}
}
