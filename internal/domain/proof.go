package domain

import "time"

// DigitalProof is the record bound into the exported document's verification
// page. DocumentHash is computed once, before any signing action, and never
// recomputed for the same upload.
type DigitalProof struct {
	DocumentHash   string    `json:"documentHash"`
	SignerIdentity string    `json:"signerIdentity"`
	SignedAt       time.Time `json:"signedAt"`
	TxReference    string    `json:"transactionReference,omitempty"`
	ProofAmount    *float64  `json:"proofAmount,omitempty"`
}

// Signer returns the identity to print on the verification page, defaulting
// to "anonymous" when no wallet was connected.
func (p DigitalProof) Signer() string {
	if p.SignerIdentity == "" {
		return "anonymous"
	}
	return p.SignerIdentity
}

// SignedTransaction is a recorded token-burn proof for a signed document.
type SignedTransaction struct {
	ID           string
	TxHash       string
	DocHash      string
	SignerPubkey string
	Amount       float64
	SignedAt     time.Time
	ExplorerURL  string
	CreatedAt    time.Time
}
