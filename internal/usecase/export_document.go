package usecase

import (
	"context"

	"go.uber.org/zap"

	"solsign/internal/domain"
	"solsign/internal/placement"
)

type ExportDocumentRequest struct {
	PDF          []byte
	Elements     []*placement.Element
	Proof        domain.DigitalProof
	QRPNG        []byte
	PreviewScale float64
}

// ExportDocument stamps the placed elements into the uploaded PDF and appends
// the verification page. Element positions arrive in preview raster
// coordinates and are mapped against the parsed page sizes.
type ExportDocument struct {
	Composer Composer
	Log      *zap.Logger
}

func (uc *ExportDocument) Execute(ctx context.Context, req ExportDocumentRequest) ([]byte, error) {
	if len(req.PDF) == 0 {
		return nil, domain.ErrInvalidInput
	}
	if req.PreviewScale <= 0 {
		req.PreviewScale = placement.DefaultPreviewScale
	}

	pages, err := uc.Composer.PageSizes(ctx, req.PDF)
	if err != nil {
		return nil, err
	}
	for _, el := range req.Elements {
		// PageIndex is 1-based; page one of the document is index 1.
		if el.PageIndex < 1 || el.PageIndex > len(pages) {
			return nil, domain.ErrElementOrphaned
		}
	}

	out, err := uc.Composer.Compose(ctx, req.PDF, req.Elements, req.Proof, req.QRPNG, req.PreviewScale)
	if err != nil {
		return nil, err
	}
	if uc.Log != nil {
		uc.Log.Info("document exported",
			zap.Int("pages", len(pages)),
			zap.Int("elements", len(req.Elements)),
			zap.String("signer", req.Proof.Signer()),
		)
	}
	return out, nil
}
