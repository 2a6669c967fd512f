package db

import (
	"context"
	"sort"
	"sync"
	"time"

	"solsign/internal/domain"
)

// MemoryVerificationRepository backs the verification flow when no Postgres
// DSN is configured. State is lost on restart.
type MemoryVerificationRepository struct {
	mu      sync.Mutex
	records map[string]*domain.VerificationRecord
}

func NewMemoryVerificationRepository() *MemoryVerificationRepository {
	return &MemoryVerificationRepository{records: map[string]*domain.VerificationRecord{}}
}

func (r *MemoryVerificationRepository) GetByIdentity(_ context.Context, identity string) (*domain.VerificationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[identity]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (r *MemoryVerificationRepository) UsernameExists(_ context.Context, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryVerificationRepository) EmailExists(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryVerificationRepository) Create(_ context.Context, rec domain.VerificationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[rec.Identity]; ok {
		return domain.ErrDuplicateIdentity
	}
	if rec.ID == "" {
		id, err := newUUID()
		if err != nil {
			return err
		}
		rec.ID = id
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	r.records[rec.Identity] = &rec
	return nil
}

func (r *MemoryVerificationRepository) UpdateProfile(_ context.Context, rec domain.VerificationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.records[rec.Identity]
	if !ok {
		return domain.ErrNotFound
	}
	stored.Username = rec.Username
	stored.Email = rec.Email
	stored.Phone = rec.Phone
	stored.ConsentGiven = rec.ConsentGiven
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryVerificationRepository) SetCode(_ context.Context, identity, code string, expiry time.Time, phase domain.Phase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[identity]
	if !ok {
		return domain.ErrNotFound
	}
	rec.Code = code
	rec.CodeExpiry = expiry
	rec.Phase = phase
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryVerificationRepository) SetPhase(_ context.Context, identity string, phase domain.Phase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[identity]
	if !ok {
		return domain.ErrNotFound
	}
	rec.Phase = phase
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryVerificationRepository) BeginVerified(_ context.Context, identity string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[identity]
	if !ok {
		return false, domain.ErrNotFound
	}
	if rec.Phase != domain.PhaseCodeSent || rec.RewardGranted {
		return false, nil
	}
	rec.Phase = domain.PhaseCodeVerified
	rec.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *MemoryVerificationRepository) TryGrant(_ context.Context, identity, txRef string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[identity]
	if !ok {
		return false, domain.ErrNotFound
	}
	if rec.RewardGranted {
		return false, nil
	}
	rec.RewardGranted = true
	rec.RewardTxRef = txRef
	rec.Phase = domain.PhaseRewardGranted
	rec.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *MemoryVerificationRepository) List(_ context.Context) ([]domain.VerificationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.VerificationRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// MemoryTransactionRepository is the in-memory counterpart for signed
// transaction proofs.
type MemoryTransactionRepository struct {
	mu  sync.Mutex
	txs []domain.SignedTransaction
}

func NewMemoryTransactionRepository() *MemoryTransactionRepository {
	return &MemoryTransactionRepository{}
}

func (r *MemoryTransactionRepository) Save(_ context.Context, tx domain.SignedTransaction) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.txs {
		if existing.TxHash == tx.TxHash {
			return existing.ID, nil
		}
	}
	if tx.ID == "" {
		id, err := newUUID()
		if err != nil {
			return "", err
		}
		tx.ID = id
	}
	tx.CreatedAt = time.Now().UTC()
	r.txs = append(r.txs, tx)
	return tx.ID, nil
}

func (r *MemoryTransactionRepository) List(_ context.Context) ([]domain.SignedTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.SignedTransaction, len(r.txs))
	copy(out, r.txs)
	sort.Slice(out, func(i, j int) bool { return out[i].SignedAt.After(out[j].SignedAt) })
	return out, nil
}

func (r *MemoryTransactionRepository) GetByHash(_ context.Context, txHash string) (*domain.SignedTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tx := range r.txs {
		if tx.TxHash == txHash {
			cp := tx
			return &cp, nil
		}
	}
	return nil, nil
}
