package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"solsign/internal/domain"
)

type VerificationRepository struct {
	db *gorm.DB
}

func NewVerificationRepository(db *gorm.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

func toDomainVerification(m VerificationModel) domain.VerificationRecord {
	rec := domain.VerificationRecord{
		ID:            m.ID,
		Identity:      m.Identity,
		Username:      m.Username,
		Email:         m.Email,
		Phone:         m.Phone,
		ConsentGiven:  m.ConsentGiven,
		Phase:         domain.Phase(m.Phase),
		Code:          m.Code,
		RewardGranted: m.RewardGranted,
		RewardTxRef:   m.RewardTxRef,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	if m.CodeExpiry != nil {
		rec.CodeExpiry = *m.CodeExpiry
	}
	return rec
}

func (r *VerificationRepository) GetByIdentity(ctx context.Context, identity string) (*domain.VerificationRecord, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var m VerificationModel
	err := r.db.WithContext(ctx).Where("wallet_address = ?", identity).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	rec := toDomainVerification(m)
	return &rec, nil
}

func (r *VerificationRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	if r.db == nil {
		return false, errDBUnavailable
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&VerificationModel{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

func (r *VerificationRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	if r.db == nil {
		return false, errDBUnavailable
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&VerificationModel{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

func (r *VerificationRepository) Create(ctx context.Context, rec domain.VerificationRecord) error {
	if r.db == nil {
		return errDBUnavailable
	}
	id := rec.ID
	if id == "" {
		var err error
		id, err = newUUID()
		if err != nil {
			return err
		}
	}
	now := time.Now().UTC()
	m := VerificationModel{
		ID:            id,
		Identity:      rec.Identity,
		Username:      rec.Username,
		Email:         rec.Email,
		Phone:         rec.Phone,
		ConsentGiven:  rec.ConsentGiven,
		Phase:         string(rec.Phase),
		Code:          rec.Code,
		RewardGranted: rec.RewardGranted,
		RewardTxRef:   rec.RewardTxRef,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if !rec.CreatedAt.IsZero() {
		m.CreatedAt = rec.CreatedAt
	}
	if !rec.CodeExpiry.IsZero() {
		exp := rec.CodeExpiry
		m.CodeExpiry = &exp
	}
	err := r.db.WithContext(ctx).Create(&m).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrDuplicateIdentity
	}
	return err
}

func (r *VerificationRepository) UpdateProfile(ctx context.Context, rec domain.VerificationRecord) error {
	if r.db == nil {
		return errDBUnavailable
	}
	res := r.db.WithContext(ctx).Model(&VerificationModel{}).
		Where("wallet_address = ?", rec.Identity).
		Updates(map[string]any{
			"username":      rec.Username,
			"email":         rec.Email,
			"phone":         rec.Phone,
			"consent_given": rec.ConsentGiven,
			"updated_at":    time.Now().UTC(),
		})
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicateIdentity
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *VerificationRepository) SetCode(ctx context.Context, identity, code string, expiry time.Time, phase domain.Phase) error {
	if r.db == nil {
		return errDBUnavailable
	}
	updates := map[string]any{
		"verification_code": code,
		"phase":             string(phase),
		"updated_at":        time.Now().UTC(),
	}
	if expiry.IsZero() {
		updates["code_expiry"] = nil
	} else {
		updates["code_expiry"] = expiry
	}
	res := r.db.WithContext(ctx).Model(&VerificationModel{}).
		Where("wallet_address = ?", identity).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *VerificationRepository) SetPhase(ctx context.Context, identity string, phase domain.Phase) error {
	if r.db == nil {
		return errDBUnavailable
	}
	res := r.db.WithContext(ctx).Model(&VerificationModel{}).
		Where("wallet_address = ?", identity).
		Updates(map[string]any{"phase": string(phase), "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// BeginVerified is a single conditional UPDATE so concurrent confirmations
// contend on the row, not in application code.
func (r *VerificationRepository) BeginVerified(ctx context.Context, identity string) (bool, error) {
	if r.db == nil {
		return false, errDBUnavailable
	}
	res := r.db.WithContext(ctx).Model(&VerificationModel{}).
		Where("wallet_address = ? AND phase = ? AND reward_granted = false", identity, string(domain.PhaseCodeSent)).
		Updates(map[string]any{"phase": string(domain.PhaseCodeVerified), "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *VerificationRepository) TryGrant(ctx context.Context, identity, txRef string) (bool, error) {
	if r.db == nil {
		return false, errDBUnavailable
	}
	res := r.db.WithContext(ctx).Model(&VerificationModel{}).
		Where("wallet_address = ? AND reward_granted = false", identity).
		Updates(map[string]any{
			"reward_granted": true,
			"reward_tx_ref":  txRef,
			"phase":          string(domain.PhaseRewardGranted),
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *VerificationRepository) List(ctx context.Context) ([]domain.VerificationRecord, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var models []VerificationModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.VerificationRecord, 0, len(models))
	for _, m := range models {
		out = append(out, toDomainVerification(m))
	}
	return out, nil
}
