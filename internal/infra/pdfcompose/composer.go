package pdfcompose

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"time"

	"github.com/wudi/pdfkit/builder"
	"github.com/wudi/pdfkit/ir"
	"github.com/wudi/pdfkit/ir/semantic"
	"github.com/wudi/pdfkit/writer"
	"go.uber.org/zap"

	"solsign/internal/domain"
	"solsign/internal/placement"
)

const (
	verifyPageWidth  = 595.0
	verifyPageHeight = 842.0
	stampFont        = "F1"
	qrSize           = 120.0
)

// Composer stamps placed elements into an uploaded PDF and appends the
// verification page with the digital proof and its QR code.
type Composer struct {
	log *zap.Logger
}

func NewComposer(log *zap.Logger) *Composer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Composer{log: log}
}

func parse(ctx context.Context, pdf []byte) (*semantic.Document, error) {
	doc, err := ir.NewDefault().Parse(ctx, bytes.NewReader(pdf))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedDocument, err)
	}
	if len(doc.Pages) == 0 {
		return nil, domain.ErrMalformedDocument
	}
	return doc, nil
}

func pageSize(p *semantic.Page) placement.Size {
	return placement.Size{
		Width:  p.MediaBox.URX - p.MediaBox.LLX,
		Height: p.MediaBox.URY - p.MediaBox.LLY,
	}
}

func (c *Composer) PageSizes(ctx context.Context, pdf []byte) ([]placement.Size, error) {
	doc, err := parse(ctx, pdf)
	if err != nil {
		return nil, err
	}
	sizes := make([]placement.Size, len(doc.Pages))
	for i, p := range doc.Pages {
		sizes[i] = pageSize(p)
	}
	return sizes, nil
}

func (c *Composer) Compose(ctx context.Context, pdf []byte, elements []*placement.Element, proof domain.DigitalProof, qrPNG []byte, previewScale float64) ([]byte, error) {
	doc, err := parse(ctx, pdf)
	if err != nil {
		return nil, err
	}

	imageSeq := 0
	for _, el := range elements {
		// PageIndex is 1-based.
		if el.PageIndex < 1 || el.PageIndex > len(doc.Pages) {
			return nil, domain.ErrElementOrphaned
		}
		page := doc.Pages[el.PageIndex-1]
		size := pageSize(page)
		rect, err := placement.MapToPDFSpace(el, placement.PreviewSizeFor(size, previewScale), size, len(doc.Pages))
		if err != nil {
			return nil, err
		}
		if el.Kind == placement.KindSignatureImage && len(el.Image) > 0 {
			img, _, decErr := image.Decode(bytes.NewReader(el.Image))
			if decErr == nil {
				imageSeq++
				stampImage(page, builder.FromImage(img), fmt.Sprintf("SigImg%d", imageSeq), rect)
				continue
			}
			c.log.Warn("signature image decode", zap.String("element", el.ID), zap.Error(decErr))
			stampText(page, "[signature]", rect)
			continue
		}
		stampText(page, el.Text, rect)
	}

	b := builder.NewBuilder()
	for _, p := range doc.Pages {
		b.AddPage(p)
	}
	c.addVerificationPage(b, proof, qrPNG)

	out, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("assemble document: %w", err)
	}
	var buf bytes.Buffer
	if err := writer.NewWriter().Write(ctx, out, &buf, writer.Config{Version: writer.PDF17, Compression: 9}); err != nil {
		return nil, fmt.Errorf("write document: %w", err)
	}
	return buf.Bytes(), nil
}

// stampText draws a text element onto a parsed page by appending a content
// stream, so existing page content is untouched.
func stampText(page *semantic.Page, text string, rect placement.Rect) {
	if text == "" {
		return
	}
	ensureResources(page)
	ensureFont(page, stampFont)

	fontSize := rect.Height * 0.6
	if fontSize > 14 {
		fontSize = 14
	}
	if fontSize < 6 {
		fontSize = 6
	}
	baseline := rect.Y + (rect.Height-fontSize)/2

	ops := []semantic.Operation{
		{Operator: "q"},
		{Operator: "BT"},
		{Operator: "rg", Operands: []semantic.Operand{
			semantic.NumberOperand{Value: 0},
			semantic.NumberOperand{Value: 0},
			semantic.NumberOperand{Value: 0},
		}},
		{Operator: "Tf", Operands: []semantic.Operand{
			semantic.NameOperand{Value: stampFont},
			semantic.NumberOperand{Value: fontSize},
		}},
		{Operator: "Tm", Operands: []semantic.Operand{
			semantic.NumberOperand{Value: 1},
			semantic.NumberOperand{Value: 0},
			semantic.NumberOperand{Value: 0},
			semantic.NumberOperand{Value: 1},
			semantic.NumberOperand{Value: rect.X},
			semantic.NumberOperand{Value: baseline},
		}},
		{Operator: "Tj", Operands: []semantic.Operand{semantic.StringOperand{Value: []byte(text)}}},
		{Operator: "ET"},
		{Operator: "Q"},
	}
	page.Contents = append(page.Contents, semantic.ContentStream{Operations: ops})
}

// stampImage registers the image as a page XObject and paints it with a cm/Do
// pair scaled to the mapped rectangle.
func stampImage(page *semantic.Page, img *semantic.Image, name string, rect placement.Rect) {
	ensureResources(page)
	page.Resources.XObjects[name] = *img

	ops := []semantic.Operation{
		{Operator: "q"},
		{Operator: "cm", Operands: []semantic.Operand{
			semantic.NumberOperand{Value: rect.Width},
			semantic.NumberOperand{Value: 0},
			semantic.NumberOperand{Value: 0},
			semantic.NumberOperand{Value: rect.Height},
			semantic.NumberOperand{Value: rect.X},
			semantic.NumberOperand{Value: rect.Y},
		}},
		{Operator: "Do", Operands: []semantic.Operand{semantic.NameOperand{Value: name}}},
		{Operator: "Q"},
	}
	page.Contents = append(page.Contents, semantic.ContentStream{Operations: ops})
}

func (c *Composer) addVerificationPage(b builder.PDFBuilder, proof domain.DigitalProof, qrPNG []byte) {
	page := b.NewPage(verifyPageWidth, verifyPageHeight)

	page.DrawRectangle(40, 40, verifyPageWidth-80, verifyPageHeight-80, builder.RectOptions{
		Stroke:      true,
		StrokeColor: builder.Color{R: 0.2, G: 0.2, B: 0.2},
		LineWidth:   1,
	})
	page.DrawText("Digital Signature Verification", 60, verifyPageHeight-90, builder.TextOptions{FontSize: 22})
	page.DrawLine(60, verifyPageHeight-104, verifyPageWidth-60, verifyPageHeight-104, builder.LineOptions{
		StrokeColor: builder.Color{R: 0.6, G: 0.6, B: 0.6},
		LineWidth:   0.5,
	})

	y := verifyPageHeight - 150
	writeLine := func(label, value string) {
		if value == "" {
			return
		}
		page.DrawText(label, 60, y, builder.TextOptions{FontSize: 12})
		page.DrawText(value, 60, y-16, builder.TextOptions{FontSize: 10, Color: builder.Color{R: 0.25, G: 0.25, B: 0.25}})
		y -= 46
	}

	writeLine("Document Hash (SHA-256)", proof.DocumentHash)
	writeLine("Signer", proof.Signer())
	if !proof.SignedAt.IsZero() {
		writeLine("Signed At", proof.SignedAt.UTC().Format(time.RFC3339))
	}
	writeLine("Transaction Reference", proof.TxReference)
	if proof.ProofAmount != nil {
		writeLine("Tokens Burned", fmt.Sprintf("%g SOLSIGN", *proof.ProofAmount))
	}

	qr, err := qrImage(proof, qrPNG)
	if err != nil {
		// The page is still valid without the QR; the proof text above
		// carries the same data.
		c.log.Warn("verification qr", zap.Error(err))
		page.DrawText("QR code unavailable; verify using the printed proof data.", 60, y, builder.TextOptions{FontSize: 9})
	} else {
		page.DrawImage(qr, verifyPageWidth-60-qrSize, verifyPageHeight-120-qrSize, qrSize, qrSize, builder.ImageOptions{})
		page.DrawText("Scan to verify", verifyPageWidth-60-qrSize+14, verifyPageHeight-132-qrSize, builder.TextOptions{FontSize: 9})
	}

	page.DrawText("Generated by SolSign", 60, 56, builder.TextOptions{FontSize: 8, Color: builder.Color{R: 0.5, G: 0.5, B: 0.5}})
	page.Finish()
}

func ensureResources(page *semantic.Page) {
	if page.Resources == nil {
		page.Resources = &semantic.Resources{}
	}
	if page.Resources.Fonts == nil {
		page.Resources.Fonts = make(map[string]*semantic.Font)
	}
	if page.Resources.XObjects == nil {
		page.Resources.XObjects = make(map[string]semantic.XObject)
	}
}

func ensureFont(page *semantic.Page, name string) {
	if _, ok := page.Resources.Fonts[name]; ok {
		return
	}
	page.Resources.Fonts[name] = &semantic.Font{BaseFont: "Helvetica"}
}
