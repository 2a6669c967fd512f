package usecase

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"solsign/internal/domain"
)

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)
	phonePattern    = regexp.MustCompile(`^\+?[1-9]\d{0,15}$`)
	phoneStrip      = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
)

type StartVerificationRequest struct {
	Username      string
	Email         string
	Phone         string
	WalletAddress string
	ConsentGiven  bool
}

type StartVerificationResponse struct {
	VerificationID string
	Status         domain.Phase
}

// StartVerification validates the submitted profile, checks the consent and
// liveness gates, and issues the first email code.
type StartVerification struct {
	Records  VerificationRepository
	Liveness LivenessStore
	Policy   EligibilityEngine
	Mailer   Mailer
	CodeTTL  time.Duration
	Now      func() time.Time
	Log      *zap.Logger
}

func (uc *StartVerification) now() time.Time {
	if uc.Now != nil {
		return uc.Now()
	}
	return time.Now().UTC()
}

func (uc *StartVerification) logger() *zap.Logger {
	if uc.Log != nil {
		return uc.Log
	}
	return zap.NewNop()
}

// Sanitize normalizes the request the way the profile form is expected to:
// trimmed fields, lowercased email.
func (r *StartVerificationRequest) Sanitize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Phone = strings.TrimSpace(r.Phone)
	r.WalletAddress = strings.TrimSpace(r.WalletAddress)
}

func validateProfile(r StartVerificationRequest) error {
	if r.Username == "" || r.Email == "" || r.WalletAddress == "" {
		return domain.ErrInvalidInput
	}
	if !r.ConsentGiven {
		return domain.ErrConsentRequired
	}
	if !emailPattern.MatchString(r.Email) {
		return domain.ErrInvalidEmail
	}
	if !usernamePattern.MatchString(r.Username) {
		return domain.ErrInvalidUsername
	}
	if len(r.WalletAddress) < 32 || len(r.WalletAddress) > 44 {
		return domain.ErrInvalidWallet
	}
	if r.Phone != "" && !phonePattern.MatchString(phoneStrip.Replace(r.Phone)) {
		return domain.ErrInvalidPhone
	}
	return nil
}

func (uc *StartVerification) Execute(ctx context.Context, req StartVerificationRequest) (*StartVerificationResponse, error) {
	req.Sanitize()
	if err := validateProfile(req); err != nil {
		return nil, err
	}

	existing, err := uc.Records.GetByIdentity(ctx, req.WalletAddress)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		switch existing.Phase {
		case domain.PhaseConsentPending, domain.PhaseLivenessPending, domain.PhaseNotStarted:
			// A stalled flow may be resubmitted.
		default:
			return nil, domain.ErrDuplicateIdentity
		}
	}
	if taken, err := uc.Records.UsernameExists(ctx, req.Username); err != nil {
		return nil, err
	} else if taken && (existing == nil || existing.Username != req.Username) {
		return nil, domain.ErrDuplicateIdentity
	}
	if taken, err := uc.Records.EmailExists(ctx, req.Email); err != nil {
		return nil, err
	} else if taken && (existing == nil || existing.Email != req.Email) {
		return nil, domain.ErrDuplicateIdentity
	}

	livenessPassed := false
	if uc.Liveness != nil {
		if res, err := uc.Liveness.Get(ctx, req.WalletAddress); err == nil && res != nil {
			livenessPassed = res.Verified
		}
	}

	rec := domain.VerificationRecord{
		Identity:     req.WalletAddress,
		Username:     req.Username,
		Email:        req.Email,
		Phone:        req.Phone,
		ConsentGiven: req.ConsentGiven,
		Phase:        domain.PhaseLivenessPending,
		CreatedAt:    uc.now(),
	}
	if existing == nil {
		if err := uc.Records.Create(ctx, rec); err != nil {
			return nil, err
		}
		existing, err = uc.Records.GetByIdentity(ctx, req.WalletAddress)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, domain.ErrNotFound
		}
	} else if existing.Username != req.Username || existing.Email != req.Email ||
		existing.Phone != req.Phone || existing.ConsentGiven != req.ConsentGiven {
		// A resubmitted stalled flow may carry corrected profile fields; the
		// code mail below must go to the address the user just entered.
		if err := uc.Records.UpdateProfile(ctx, rec); err != nil {
			return nil, err
		}
		existing.Username = req.Username
		existing.Email = req.Email
		existing.Phone = req.Phone
		existing.ConsentGiven = req.ConsentGiven
	}

	decision, err := uc.Policy.Evaluate(ctx, EligibilityInput{
		Identity:       req.WalletAddress,
		Email:          req.Email,
		ConsentGiven:   req.ConsentGiven,
		LivenessPassed: livenessPassed,
	})
	if err != nil {
		return nil, err
	}
	if !decision.Allow {
		if err := uc.Records.SetPhase(ctx, req.WalletAddress, domain.PhaseLivenessPending); err != nil {
			return nil, err
		}
		if decision.MissingGate == "consent" {
			return nil, domain.ErrConsentRequired
		}
		return nil, domain.ErrLivenessRequired
	}

	code, err := GenerateCode()
	if err != nil {
		return nil, err
	}
	expiry := uc.now().Add(uc.CodeTTL)
	if err := uc.Records.SetCode(ctx, req.WalletAddress, code, expiry, domain.PhaseCodeSent); err != nil {
		return nil, err
	}

	if err := uc.Mailer.SendVerificationCode(ctx, req.Email, req.Username, code); err != nil {
		// The issued code must not stay active if it was never delivered.
		if rbErr := uc.Records.SetCode(ctx, req.WalletAddress, "", time.Time{}, domain.PhaseLivenessPending); rbErr != nil {
			uc.logger().Error("rollback after mail failure", zap.String("identity", req.WalletAddress), zap.Error(rbErr))
		}
		uc.logger().Error("verification mail", zap.String("identity", req.WalletAddress), zap.Error(err))
		return nil, domain.ErrMailDelivery
	}

	uc.logger().Info("verification code issued",
		zap.String("identity", req.WalletAddress),
		zap.String("username", req.Username),
		zap.Time("expiry", expiry),
	)
	return &StartVerificationResponse{VerificationID: existing.ID, Status: domain.PhaseCodeSent}, nil
}
