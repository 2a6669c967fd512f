package domain

import "time"

// Phase is the single lifecycle variable for an identity's verification.
type Phase string

const (
	PhaseNotStarted      Phase = "not_started"
	PhaseConsentPending  Phase = "consent_pending"
	PhaseLivenessPending Phase = "liveness_pending"
	PhaseCodeSent        Phase = "code_sent"
	PhaseCodeVerified    Phase = "code_verified"
	PhaseRewardGranted   Phase = "reward_granted"
	PhaseFailed          Phase = "failed"
)

// VerificationRecord is the durable per-wallet verification state. Identity
// (the wallet address) is the unique key; RewardGranted is monotone and the
// transition into it must be a single conditional update on the store.
type VerificationRecord struct {
	ID            string
	Identity      string
	Username      string
	Email         string
	Phone         string
	ConsentGiven  bool
	Phase         Phase
	Code          string
	CodeExpiry    time.Time
	RewardGranted bool
	RewardTxRef   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CodeValid reports whether the stored code matches and has not expired at
// the given instant. Only the most recently issued code is ever stored, so a
// resend implicitly invalidates its predecessor.
func (r *VerificationRecord) CodeValid(code string, now time.Time) error {
	if r.Phase != PhaseCodeSent {
		return ErrCodeInvalid
	}
	if now.After(r.CodeExpiry) {
		return ErrCodeExpired
	}
	if r.Code != code {
		return ErrCodeInvalid
	}
	return nil
}

// LivenessResult is the outcome of a camera liveness check, stored keyed by
// identity until the verification flow consumes it.
type LivenessResult struct {
	Verified       bool
	LastVerifiedAt time.Time
	SnapshotHash   string
}
