package http

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"solsign/internal/domain"
	"solsign/internal/placement"
	"solsign/internal/usecase"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type verifyRequest struct {
	Username      string `json:"username"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	WalletAddress string `json:"walletAddress"`
	ConsentGiven  bool   `json:"consentGiven"`
}

type verifyCodeRequest struct {
	VerificationCode string `json:"verificationCode"`
	WalletAddress    string `json:"walletAddress"`
}

type resendCodeRequest struct {
	WalletAddress string `json:"walletAddress"`
}

type transactionRequest struct {
	TxHash       string  `json:"txHash"`
	DocHash      string  `json:"docHash"`
	SignerPubkey string  `json:"signerPubkey"`
	Amount       float64 `json:"ssignAmount"`
	ExplorerURL  string  `json:"explorerUrl"`
	SignedAt     string  `json:"signedAt"`
}

type transactionResponse struct {
	ID           string  `json:"id"`
	TxHash       string  `json:"txHash"`
	DocHash      string  `json:"docHash"`
	SignerPubkey string  `json:"signerPubkey"`
	Amount       float64 `json:"ssignAmount"`
	SignedAt     string  `json:"signedAt"`
	ExplorerURL  string  `json:"explorerUrl"`
}

func (s *Server) handleStartVerification(c *gin.Context) {
	if !s.enforceRateLimit(c, "profile:verify") {
		return
	}
	if s.startUC == nil {
		writeErrorCode(c, http.StatusInternalServerError, "INTERNAL", "verification unavailable")
		return
	}
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	resp, err := s.startUC.Execute(c.Request.Context(), usecase.StartVerificationRequest{
		Username:      req.Username,
		Email:         req.Email,
		Phone:         req.Phone,
		WalletAddress: req.WalletAddress,
		ConsentGiven:  req.ConsentGiven,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"verificationId": resp.VerificationID,
		"status":         string(resp.Status),
	})
}

func (s *Server) handleVerifyCode(c *gin.Context) {
	if !s.enforceRateLimit(c, "profile:verify-code") {
		return
	}
	var req verifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	resp, err := s.confirmUC.Execute(c.Request.Context(), usecase.ConfirmCodeRequest{
		WalletAddress: req.WalletAddress,
		Code:          req.VerificationCode,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":               "verified",
		"rewardAmount":         resp.Amount,
		"transactionSignature": resp.TxReference,
		"explorerUrl":          resp.ExplorerURL,
	})
}

func (s *Server) handleResendCode(c *gin.Context) {
	if !s.enforceRateLimit(c, "profile:resend-code") {
		return
	}
	var req resendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	if err := s.resendUC.Execute(c.Request.Context(), usecase.ResendCodeRequest{WalletAddress: req.WalletAddress}); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "code_sent"})
}

func (s *Server) handleVerificationStatus(c *gin.Context) {
	resp, err := s.statusUC.Execute(c.Request.Context(), c.Param("walletAddress"))
	if err != nil {
		writeError(c, err)
		return
	}
	out := gin.H{
		"walletAddress": resp.Identity,
		"phase":         string(resp.Phase),
		"rewardGranted": resp.RewardGranted,
	}
	if resp.RewardGranted {
		out["transactionReference"] = resp.RewardTxRef
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleListVerifications(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	records, err := s.listVerUC.Execute(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]gin.H, 0, len(records))
	for _, rec := range records {
		out = append(out, gin.H{
			"walletAddress": rec.Identity,
			"username":      rec.Username,
			"email":         rec.Email,
			"phase":         string(rec.Phase),
			"rewardGranted": rec.RewardGranted,
			"createdAt":     rec.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, gin.H{"verifications": out})
}

func (s *Server) readUpload(c *gin.Context, field string) ([]byte, *multipart.FileHeader, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, nil, err
	}
	if header.Size > s.cfg.MaxUploadBytes {
		return nil, nil, domain.ErrInvalidInput
	}
	f, err := header.Open()
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, nil, err
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, nil, domain.ErrInvalidInput
	}
	return data, header, nil
}

func isSupportedImage(data []byte) bool {
	switch http.DetectContentType(data) {
	case "image/png", "image/jpeg":
		return true
	}
	return false
}

func (s *Server) handleSignDocument(c *gin.Context) {
	pdf, _, err := s.readUpload(c, "pdf")
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_UPLOAD", "pdf file is required and must be at most 15MB")
		return
	}

	pageNumber, err := strconv.Atoi(c.PostForm("pageNumber"))
	if err != nil || pageNumber < 1 {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_PLACEMENT", "pageNumber must be a positive integer")
		return
	}
	var rect struct {
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}
	if err := json.Unmarshal([]byte(c.PostForm("placement")), &rect); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_PLACEMENT", "placement must be a JSON rect")
		return
	}

	el := &placement.Element{
		ID:        "signature",
		PageIndex: pageNumber,
		X:         rect.X,
		Y:         rect.Y,
		Width:     rect.Width,
		Height:    rect.Height,
	}
	if img, _, err := s.readUpload(c, "signatureImage"); err == nil {
		if !isSupportedImage(img) {
			writeErrorCode(c, http.StatusBadRequest, "INVALID_UPLOAD", "signature image must be PNG or JPEG")
			return
		}
		el.Kind = placement.KindSignatureImage
		el.Image = img
	} else if text := c.PostForm("signatureText"); text != "" {
		el.Kind = placement.KindFreeText
		el.Text = text
	} else {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_UPLOAD", "signatureImage or signatureText is required")
		return
	}

	sum := sha256.Sum256(pdf)
	docHash := hex.EncodeToString(sum[:])
	signedAt := time.Now().UTC()
	proof := domain.DigitalProof{
		DocumentHash:   docHash,
		SignerIdentity: c.PostForm("walletAddress"),
		SignedAt:       signedAt,
	}

	out, err := s.exportUC.Execute(c.Request.Context(), usecase.ExportDocumentRequest{
		PDF:      pdf,
		Elements: []*placement.Element{el},
		Proof:    proof,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"signedPdfBase64": base64.StdEncoding.EncodeToString(out),
		"sha256":          docHash,
		"meta": gin.H{
			"signedAt":  signedAt.Format(time.RFC3339),
			"sizeBytes": len(out),
			"signer":    proof.Signer(),
		},
	})
}

func (s *Server) handleExportSignedPDF(c *gin.Context) {
	pdf, _, err := s.readUpload(c, "pdf")
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_UPLOAD", "pdf file is required and must be at most 15MB")
		return
	}

	var elements []*placement.Element
	if raw := c.PostForm("elements"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &elements); err != nil {
			writeErrorCode(c, http.StatusBadRequest, "INVALID_ELEMENTS", "elements must be a JSON array")
			return
		}
	}
	var proof domain.DigitalProof
	if raw := c.PostForm("digitalProof"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &proof); err != nil {
			writeErrorCode(c, http.StatusBadRequest, "INVALID_PROOF", "digitalProof must be a JSON object")
			return
		}
	}
	qrPNG, err := decodeDataURL(c.PostForm("qrCode"))
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_QR", "qrCode must be a base64 data URL")
		return
	}

	out, err := s.exportUC.Execute(c.Request.Context(), usecase.ExportDocumentRequest{
		PDF:      pdf,
		Elements: elements,
		Proof:    proof,
		QRPNG:    qrPNG,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="signed-document.pdf"`)
	c.Data(http.StatusOK, "application/pdf", out)
}

// decodeDataURL accepts "data:image/png;base64,..." payloads or plain base64.
// An empty input yields nil, letting the composer render its own QR.
func decodeDataURL(raw string) ([]byte, error) {
	if raw == "" {
		return nil, nil
	}
	if idx := strings.Index(raw, "base64,"); idx >= 0 {
		raw = raw[idx+len("base64,"):]
	}
	return base64.StdEncoding.DecodeString(raw)
}

func (s *Server) livenessIdentity(c *gin.Context) string {
	if id := c.GetHeader("X-User-Id"); id != "" {
		return id
	}
	return c.Query("walletAddress")
}

func (s *Server) handleLivenessStatus(c *gin.Context) {
	identity := s.livenessIdentity(c)
	if identity == "" {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_IDENTITY", "X-User-Id header or walletAddress is required")
		return
	}
	res, err := s.liveness.Get(c.Request.Context(), identity)
	if err != nil {
		writeError(c, err)
		return
	}
	if res == nil {
		c.JSON(http.StatusOK, gin.H{"verified": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"verified":       res.Verified,
		"lastVerifiedAt": res.LastVerifiedAt.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleLivenessComplete(c *gin.Context) {
	identity := s.livenessIdentity(c)
	if identity == "" {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_IDENTITY", "X-User-Id header or walletAddress is required")
		return
	}
	var body struct {
		SnapshotHash string `json:"snapshotHash"`
	}
	_ = c.ShouldBindJSON(&body)
	res := domain.LivenessResult{
		Verified:       true,
		LastVerifiedAt: time.Now().UTC(),
		SnapshotHash:   body.SnapshotHash,
	}
	if err := s.liveness.Put(c.Request.Context(), identity, res); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"verified": true})
}

func (s *Server) handleLivenessClear(c *gin.Context) {
	identity := s.livenessIdentity(c)
	if identity == "" {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_IDENTITY", "X-User-Id header or walletAddress is required")
		return
	}
	if err := s.liveness.Clear(c.Request.Context(), identity); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

func (s *Server) handleRecordTransaction(c *gin.Context) {
	var req transactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	var signedAt time.Time
	if req.SignedAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.SignedAt)
		if err != nil {
			writeErrorCode(c, http.StatusBadRequest, "INVALID_TRANSACTION", "invalid signedAt")
			return
		}
		signedAt = parsed.UTC()
	}
	tx, err := s.recordTx.Execute(c.Request.Context(), usecase.RecordTransactionRequest{
		TxHash:       req.TxHash,
		DocHash:      req.DocHash,
		SignerPubkey: req.SignerPubkey,
		Amount:       req.Amount,
		ExplorerURL:  req.ExplorerURL,
		SignedAt:     signedAt,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTransactionResponse(*tx))
}

func (s *Server) handleListTransactions(c *gin.Context) {
	txs, err := s.listTx.Execute(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionResponse(tx))
	}
	c.JSON(http.StatusOK, gin.H{"transactions": out})
}

func (s *Server) handleGetTransaction(c *gin.Context) {
	tx, err := s.getTx.Execute(c.Request.Context(), c.Param("txHash"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTransactionResponse(*tx))
}

func toTransactionResponse(tx domain.SignedTransaction) transactionResponse {
	return transactionResponse{
		ID:           tx.ID,
		TxHash:       tx.TxHash,
		DocHash:      tx.DocHash,
		SignerPubkey: tx.SignerPubkey,
		Amount:       tx.Amount,
		SignedAt:     tx.SignedAt.UTC().Format(time.RFC3339),
		ExplorerURL:  tx.ExplorerURL,
	}
}

func (s *Server) requireAdmin(c *gin.Context) bool {
	if s.adminAPIKey == "" {
		writeErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "admin key required")
		return false
	}
	key := c.GetHeader("X-Admin-Key")
	if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(s.adminAPIKey)) != 1 {
		writeErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid admin key")
		return false
	}
	return true
}

func writeError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrInvalidEmail):
		status, code = http.StatusBadRequest, "INVALID_EMAIL"
	case errors.Is(err, domain.ErrInvalidUsername):
		status, code = http.StatusBadRequest, "INVALID_USERNAME"
	case errors.Is(err, domain.ErrInvalidWallet):
		status, code = http.StatusBadRequest, "INVALID_WALLET"
	case errors.Is(err, domain.ErrInvalidPhone):
		status, code = http.StatusBadRequest, "INVALID_PHONE"
	case errors.Is(err, domain.ErrInvalidInput):
		status, code = http.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(err, domain.ErrConsentRequired):
		status, code = http.StatusBadRequest, "CONSENT_REQUIRED"
	case errors.Is(err, domain.ErrLivenessRequired):
		status, code = http.StatusBadRequest, "LIVENESS_REQUIRED"
	case errors.Is(err, domain.ErrCodeInvalid):
		status, code = http.StatusBadRequest, "CODE_INVALID"
	case errors.Is(err, domain.ErrCodeExpired):
		status, code = http.StatusBadRequest, "CODE_EXPIRED"
	case errors.Is(err, domain.ErrMalformedDocument):
		status, code = http.StatusBadRequest, "MALFORMED_DOCUMENT"
	case errors.Is(err, domain.ErrElementOrphaned):
		status, code = http.StatusBadRequest, "ELEMENT_ORPHANED"
	case errors.Is(err, domain.ErrDuplicateIdentity):
		status, code = http.StatusConflict, "DUPLICATE_IDENTITY"
	case errors.Is(err, domain.ErrAlreadyRewarded):
		status, code = http.StatusConflict, "ALREADY_REWARDED"
	case errors.Is(err, domain.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrUnauthorized):
		status, code = http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrMailDelivery):
		status, code = http.StatusBadGateway, "MAIL_DELIVERY"
	case errors.Is(err, domain.ErrRewardPending):
		status, code = http.StatusBadGateway, "REWARD_PENDING"
	}
	writeErrorCode(c, status, code, err.Error())
}

func writeErrorCode(c *gin.Context, status int, code, message string) {
	c.JSON(status, errorResponse{
		Code:    code,
		Message: message,
	})
}
