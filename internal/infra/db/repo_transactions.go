package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"solsign/internal/domain"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func toDomainTransaction(m TransactionModel) domain.SignedTransaction {
	return domain.SignedTransaction{
		ID:           m.ID,
		TxHash:       m.TxHash,
		DocHash:      m.DocHash,
		SignerPubkey: m.SignerPubkey,
		Amount:       m.Amount,
		SignedAt:     m.SignedAt,
		ExplorerURL:  m.ExplorerURL,
		CreatedAt:    m.CreatedAt,
	}
}

func (r *TransactionRepository) Save(ctx context.Context, tx domain.SignedTransaction) (string, error) {
	if r.db == nil {
		return "", errDBUnavailable
	}
	id := tx.ID
	if id == "" {
		var err error
		id, err = newUUID()
		if err != nil {
			return "", err
		}
	}
	m := TransactionModel{
		ID:           id,
		TxHash:       tx.TxHash,
		DocHash:      tx.DocHash,
		SignerPubkey: tx.SignerPubkey,
		Amount:       tx.Amount,
		SignedAt:     tx.SignedAt,
		ExplorerURL:  tx.ExplorerURL,
		CreatedAt:    time.Now().UTC(),
	}
	// Re-submitting the same tx hash is a no-op, not an error.
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "tx_hash"}}, DoNothing: true}).
		Create(&m).Error
	if err != nil {
		return "", err
	}
	var saved TransactionModel
	if err := r.db.WithContext(ctx).Where("tx_hash = ?", tx.TxHash).First(&saved).Error; err != nil {
		return "", err
	}
	return saved.ID, nil
}

func (r *TransactionRepository) List(ctx context.Context) ([]domain.SignedTransaction, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var models []TransactionModel
	if err := r.db.WithContext(ctx).Order("signed_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.SignedTransaction, 0, len(models))
	for _, m := range models {
		out = append(out, toDomainTransaction(m))
	}
	return out, nil
}

func (r *TransactionRepository) GetByHash(ctx context.Context, txHash string) (*domain.SignedTransaction, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var m TransactionModel
	err := r.db.WithContext(ctx).Where("tx_hash = ?", txHash).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	tx := toDomainTransaction(m)
	return &tx, nil
}
