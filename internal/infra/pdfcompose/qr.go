package pdfcompose

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"

	qrcode "github.com/skip2/go-qrcode"
	"github.com/wudi/pdfkit/builder"
	"github.com/wudi/pdfkit/ir/semantic"

	"solsign/internal/domain"
)

// qrImage returns the verification QR as a PDF image. A client-supplied PNG
// wins; otherwise the QR is rendered from the proof's JSON encoding.
func qrImage(proof domain.DigitalProof, qrPNG []byte) (*semantic.Image, error) {
	if len(qrPNG) > 0 {
		img, _, err := image.Decode(bytes.NewReader(qrPNG))
		if err != nil {
			return nil, fmt.Errorf("decode qr png: %w", err)
		}
		return builder.FromImage(img), nil
	}

	payload, err := json.Marshal(proof)
	if err != nil {
		return nil, fmt.Errorf("encode proof: %w", err)
	}
	qr, err := qrcode.New(string(payload), qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("render qr: %w", err)
	}
	return builder.FromImage(qr.Image(256)), nil
}
