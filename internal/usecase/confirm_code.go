package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"solsign/internal/domain"
)

type ConfirmCodeRequest struct {
	WalletAddress string
	Code          string
}

type ConfirmCodeResponse struct {
	Status      domain.Phase
	TxReference string
	Amount      float64
	ExplorerURL string
}

// ConfirmCode checks the submitted email code and, exactly once per identity,
// dispatches the token reward. A dispatch failure leaves the record in
// code_verified so a later attempt retries the transfer without re-checking
// the code.
type ConfirmCode struct {
	Records    VerificationRepository
	Dispatcher RewardDispatcher
	Mailer     Mailer
	Amount     float64
	Now        func() time.Time
	Log        *zap.Logger
}

func (uc *ConfirmCode) now() time.Time {
	if uc.Now != nil {
		return uc.Now()
	}
	return time.Now().UTC()
}

func (uc *ConfirmCode) logger() *zap.Logger {
	if uc.Log != nil {
		return uc.Log
	}
	return zap.NewNop()
}

func (uc *ConfirmCode) Execute(ctx context.Context, req ConfirmCodeRequest) (*ConfirmCodeResponse, error) {
	if req.WalletAddress == "" {
		return nil, domain.ErrInvalidInput
	}

	rec, err := uc.Records.GetByIdentity(ctx, req.WalletAddress)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	if rec.RewardGranted {
		return nil, domain.ErrAlreadyRewarded
	}

	switch rec.Phase {
	case domain.PhaseCodeVerified:
		// Earlier dispatch failed after the code was consumed; retry the
		// transfer only.
	case domain.PhaseCodeSent:
		if !ValidCodeFormat(req.Code) {
			return nil, domain.ErrCodeInvalid
		}
		if err := rec.CodeValid(req.Code, uc.now()); err != nil {
			return nil, err
		}
		ok, err := uc.Records.BeginVerified(ctx, req.WalletAddress)
		if err != nil {
			return nil, err
		}
		if !ok {
			// Lost the race to a concurrent confirm that already moved the
			// record forward.
			return nil, domain.ErrAlreadyRewarded
		}
	default:
		return nil, domain.ErrNotFound
	}

	receipt, err := uc.Dispatcher.Transfer(ctx, req.WalletAddress, uc.Amount)
	if err != nil {
		uc.logger().Error("reward dispatch", zap.String("identity", req.WalletAddress), zap.Error(err))
		return nil, domain.ErrRewardPending
	}

	granted, err := uc.Records.TryGrant(ctx, req.WalletAddress, receipt.Signature)
	if err != nil {
		return nil, err
	}
	if !granted {
		return nil, domain.ErrAlreadyRewarded
	}

	if uc.Mailer != nil {
		if err := uc.Mailer.SendVerificationSuccess(ctx, rec.Email, rec.Username, receipt.Amount); err != nil {
			uc.logger().Warn("success mail", zap.String("identity", req.WalletAddress), zap.Error(err))
		}
	}

	uc.logger().Info("reward granted",
		zap.String("identity", req.WalletAddress),
		zap.String("signature", receipt.Signature),
		zap.Float64("amount", receipt.Amount),
	)
	return &ConfirmCodeResponse{
		Status:      domain.PhaseRewardGranted,
		TxReference: receipt.Signature,
		Amount:      receipt.Amount,
		ExplorerURL: receipt.ExplorerURL,
	}, nil
}
