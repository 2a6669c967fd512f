package usecase

import (
	"context"

	"solsign/internal/domain"
)

type VerificationStatusResponse struct {
	Identity      string
	Username      string
	Phase         domain.Phase
	RewardGranted bool
	RewardTxRef   string
}

// VerificationStatus reports where an identity sits in the lifecycle. Unknown
// identities report not_started rather than an error.
type VerificationStatus struct {
	Records VerificationRepository
}

func (uc *VerificationStatus) Execute(ctx context.Context, identity string) (*VerificationStatusResponse, error) {
	if identity == "" {
		return nil, domain.ErrInvalidInput
	}
	rec, err := uc.Records.GetByIdentity(ctx, identity)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return &VerificationStatusResponse{Identity: identity, Phase: domain.PhaseNotStarted}, nil
	}
	return &VerificationStatusResponse{
		Identity:      rec.Identity,
		Username:      rec.Username,
		Phase:         rec.Phase,
		RewardGranted: rec.RewardGranted,
		RewardTxRef:   rec.RewardTxRef,
	}, nil
}

// ListVerifications is the admin view over every verification record.
type ListVerifications struct {
	Records VerificationRepository
}

func (uc *ListVerifications) Execute(ctx context.Context) ([]domain.VerificationRecord, error) {
	return uc.Records.List(ctx)
}
