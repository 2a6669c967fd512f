package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"solsign/internal/domain"
)

type RecordTransactionRequest struct {
	TxHash       string
	DocHash      string
	SignerPubkey string
	Amount       float64
	ExplorerURL  string
	SignedAt     time.Time
}

// RecordTransaction persists the on-chain proof of a completed signing so it
// can be listed and looked up by hash later.
type RecordTransaction struct {
	Transactions TransactionRepository
	Network      string
	Now          func() time.Time
	Log          *zap.Logger
}

func (uc *RecordTransaction) now() time.Time {
	if uc.Now != nil {
		return uc.Now()
	}
	return time.Now().UTC()
}

func (uc *RecordTransaction) Execute(ctx context.Context, req RecordTransactionRequest) (*domain.SignedTransaction, error) {
	if req.TxHash == "" || req.DocHash == "" || req.SignerPubkey == "" {
		return nil, domain.ErrInvalidInput
	}
	if req.SignedAt.IsZero() {
		req.SignedAt = uc.now()
	}
	if req.ExplorerURL == "" {
		req.ExplorerURL = fmt.Sprintf("https://explorer.solana.com/tx/%s?cluster=%s", req.TxHash, uc.Network)
	}

	tx := domain.SignedTransaction{
		TxHash:       req.TxHash,
		DocHash:      req.DocHash,
		SignerPubkey: req.SignerPubkey,
		Amount:       req.Amount,
		SignedAt:     req.SignedAt,
		ExplorerURL:  req.ExplorerURL,
	}
	id, err := uc.Transactions.Save(ctx, tx)
	if err != nil {
		return nil, err
	}
	tx.ID = id
	if uc.Log != nil {
		uc.Log.Info("transaction recorded",
			zap.String("txHash", tx.TxHash),
			zap.String("signer", tx.SignerPubkey),
		)
	}
	return &tx, nil
}

// ListTransactions returns recorded signing proofs, newest first.
type ListTransactions struct {
	Transactions TransactionRepository
}

func (uc *ListTransactions) Execute(ctx context.Context) ([]domain.SignedTransaction, error) {
	return uc.Transactions.List(ctx)
}

// GetTransaction looks a signing proof up by its transaction hash.
type GetTransaction struct {
	Transactions TransactionRepository
}

func (uc *GetTransaction) Execute(ctx context.Context, txHash string) (*domain.SignedTransaction, error) {
	if txHash == "" {
		return nil, domain.ErrInvalidInput
	}
	tx, err := uc.Transactions.GetByHash(ctx, txHash)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, domain.ErrNotFound
	}
	return tx, nil
}
