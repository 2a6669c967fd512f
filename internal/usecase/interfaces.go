package usecase

import (
	"context"
	"time"

	"solsign/internal/domain"
	"solsign/internal/placement"
)

// VerificationRepository is the durable store for per-identity verification
// records. BeginVerified and TryGrant must be single conditional updates so
// that concurrent confirmations race safely.
type VerificationRepository interface {
	GetByIdentity(ctx context.Context, identity string) (*domain.VerificationRecord, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, rec domain.VerificationRecord) error
	// UpdateProfile replaces the profile fields (username, email, phone,
	// consent) of the record keyed by rec.Identity, leaving lifecycle state
	// untouched.
	UpdateProfile(ctx context.Context, rec domain.VerificationRecord) error
	// SetCode stores a freshly issued code with its expiry and moves the
	// record into the given phase. Overwriting invalidates any prior code.
	SetCode(ctx context.Context, identity, code string, expiry time.Time, phase domain.Phase) error
	SetPhase(ctx context.Context, identity string, phase domain.Phase) error
	// BeginVerified performs the code_sent -> code_verified transition only
	// if the record is still in code_sent and not yet rewarded. Returns
	// false when another request won the transition.
	BeginVerified(ctx context.Context, identity string) (bool, error)
	// TryGrant marks the reward granted with its transaction reference only
	// if it was not granted before. Returns false when already granted.
	TryGrant(ctx context.Context, identity, txRef string) (bool, error)
	List(ctx context.Context) ([]domain.VerificationRecord, error)
}

// TransactionRepository records token-burn proofs for signed documents.
type TransactionRepository interface {
	Save(ctx context.Context, tx domain.SignedTransaction) (string, error)
	List(ctx context.Context) ([]domain.SignedTransaction, error)
	GetByHash(ctx context.Context, txHash string) (*domain.SignedTransaction, error)
}

// LivenessStore holds camera liveness-check results keyed by identity.
type LivenessStore interface {
	Get(ctx context.Context, identity string) (*domain.LivenessResult, error)
	Put(ctx context.Context, identity string, res domain.LivenessResult) error
	Clear(ctx context.Context, identity string) error
}

// Mailer delivers verification codes and reward notices.
type Mailer interface {
	SendVerificationCode(ctx context.Context, email, username, code string) error
	SendVerificationSuccess(ctx context.Context, email, username string, amount float64) error
}

// RewardReceipt is the confirmation of a dispatched token transfer.
type RewardReceipt struct {
	Signature   string
	ExplorerURL string
	Amount      float64
}

// RewardDispatcher moves reward tokens to a verified wallet. A dispatch is a
// single external attempt; failures are reported, never retried internally.
type RewardDispatcher interface {
	Transfer(ctx context.Context, recipient string, amount float64) (*RewardReceipt, error)
}

// EligibilityInput feeds the policy deciding whether a code may be issued.
type EligibilityInput struct {
	Identity       string `json:"identity"`
	Email          string `json:"email"`
	ConsentGiven   bool   `json:"consent_given"`
	LivenessPassed bool   `json:"liveness_passed"`
}

// EligibilityDecision is the policy verdict. MissingGate names the first
// unsatisfied gate when Allow is false.
type EligibilityDecision struct {
	Allow       bool   `json:"allow"`
	MissingGate string `json:"missing_gate"`
}

// EligibilityEngine evaluates the code-issuance gates (consent, liveness).
type EligibilityEngine interface {
	Evaluate(ctx context.Context, input EligibilityInput) (EligibilityDecision, error)
}

// Composer turns a source PDF, placed elements, and a digital proof into the
// final exported document.
type Composer interface {
	// PageSizes loads the document and returns per-page media box sizes in
	// PDF points, rejecting unparseable input.
	PageSizes(ctx context.Context, pdf []byte) ([]placement.Size, error)
	// Compose stamps the elements and appends the verification page. qrPNG
	// may be nil; the composer then renders its own QR from the proof, and
	// falls back to text if that fails. The source bytes are never mutated.
	Compose(ctx context.Context, pdf []byte, elements []*placement.Element, proof domain.DigitalProof, qrPNG []byte, previewScale float64) ([]byte, error)
}
