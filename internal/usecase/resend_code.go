package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"solsign/internal/domain"
)

type ResendCodeRequest struct {
	WalletAddress string
}

// ResendCode replaces the pending email code with a fresh one. The old code
// stops working the moment the new one is stored.
type ResendCode struct {
	Records VerificationRepository
	Mailer  Mailer
	CodeTTL time.Duration
	Now     func() time.Time
	Log     *zap.Logger
}

func (uc *ResendCode) now() time.Time {
	if uc.Now != nil {
		return uc.Now()
	}
	return time.Now().UTC()
}

func (uc *ResendCode) logger() *zap.Logger {
	if uc.Log != nil {
		return uc.Log
	}
	return zap.NewNop()
}

func (uc *ResendCode) Execute(ctx context.Context, req ResendCodeRequest) error {
	if req.WalletAddress == "" {
		return domain.ErrInvalidInput
	}

	rec, err := uc.Records.GetByIdentity(ctx, req.WalletAddress)
	if err != nil {
		return err
	}
	if rec == nil || rec.Phase != domain.PhaseCodeSent {
		return domain.ErrNotFound
	}

	code, err := GenerateCode()
	if err != nil {
		return err
	}
	expiry := uc.now().Add(uc.CodeTTL)
	if err := uc.Records.SetCode(ctx, req.WalletAddress, code, expiry, domain.PhaseCodeSent); err != nil {
		return err
	}

	if err := uc.Mailer.SendVerificationCode(ctx, rec.Email, rec.Username, code); err != nil {
		// The replacement code was never delivered; restore the previous one
		// so the undelivered code cannot be guessed valid.
		if rbErr := uc.Records.SetCode(ctx, req.WalletAddress, rec.Code, rec.CodeExpiry, domain.PhaseCodeSent); rbErr != nil {
			uc.logger().Error("rollback after resend mail failure", zap.String("identity", req.WalletAddress), zap.Error(rbErr))
		}
		uc.logger().Error("resend mail", zap.String("identity", req.WalletAddress), zap.Error(err))
		return domain.ErrMailDelivery
	}
	uc.logger().Info("verification code resent", zap.String("identity", req.WalletAddress), zap.Time("expiry", expiry))
	return nil
}
