package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"solsign/internal/domain"
	"solsign/internal/placement"
)

type fakeVerificationRepo struct {
	mu      sync.Mutex
	records map[string]*domain.VerificationRecord
	nextID  int
	failAll error
}

func newFakeVerificationRepo() *fakeVerificationRepo {
	return &fakeVerificationRepo{records: map[string]*domain.VerificationRecord{}}
}

func (r *fakeVerificationRepo) GetByIdentity(_ context.Context, identity string) (*domain.VerificationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return nil, r.failAll
	}
	rec, ok := r.records[identity]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (r *fakeVerificationRepo) UsernameExists(_ context.Context, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeVerificationRepo) EmailExists(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeVerificationRepo) Create(_ context.Context, rec domain.VerificationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[rec.Identity]; ok {
		return domain.ErrDuplicateIdentity
	}
	r.nextID++
	rec.ID = fmt.Sprintf("ver-%d", r.nextID)
	r.records[rec.Identity] = &rec
	return nil
}

func (r *fakeVerificationRepo) UpdateProfile(_ context.Context, rec domain.VerificationRecord) error {
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
	return nil
}

func (r *fakeVerificationRepo) SetCode(_ context.Context, identity, code string, expiry time.Time, phase domain.Phase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[identity]
	if !ok {
		return domain.ErrNotFound
	}
	rec.Code = code
	rec.CodeExpiry = expiry
	rec.Phase = phase
	return nil
}

func (r *fakeVerificationRepo) SetPhase(_ context.Context, identity string, phase domain.Phase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[identity]
	if !ok {
		return domain.ErrNotFound
	}
	rec.Phase = phase
	return nil
}

func (r *fakeVerificationRepo) BeginVerified(_ context.Context, identity string) (bool, error) {
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
	return true, nil
}

func (r *fakeVerificationRepo) TryGrant(_ context.Context, identity, txRef string) (bool, error) {
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
	return true, nil
}

func (r *fakeVerificationRepo) List(_ context.Context) ([]domain.VerificationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.VerificationRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, *rec)
	}
	return out, nil
}

func (r *fakeVerificationRepo) get(identity string) domain.VerificationRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.records[identity]
}

type fakeLiveness struct {
	mu      sync.Mutex
	results map[string]domain.LivenessResult
}

func newFakeLiveness() *fakeLiveness {
	return &fakeLiveness{results: map[string]domain.LivenessResult{}}
}

func (s *fakeLiveness) Get(_ context.Context, identity string) (*domain.LivenessResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.results[identity]
	if !ok {
		return nil, nil
	}
	return &res, nil
}

func (s *fakeLiveness) Put(_ context.Context, identity string, res domain.LivenessResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[identity] = res
	return nil
}

func (s *fakeLiveness) Clear(_ context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.results, identity)
	return nil
}

type fakePolicy struct{}

func (fakePolicy) Evaluate(_ context.Context, in EligibilityInput) (EligibilityDecision, error) {
	if !in.ConsentGiven {
		return EligibilityDecision{MissingGate: "consent"}, nil
	}
	if !in.LivenessPassed {
		return EligibilityDecision{MissingGate: "liveness"}, nil
	}
	return EligibilityDecision{Allow: true}, nil
}

type fakeMailer struct {
	mu        sync.Mutex
	codes     []string
	to        []string
	successes int
	fail      error
}

func (m *fakeMailer) SendVerificationCode(_ context.Context, email, _, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.codes = append(m.codes, code)
	m.to = append(m.to, email)
	return nil
}

func (m *fakeMailer) SendVerificationSuccess(_ context.Context, _, _ string, _ float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.successes++
	return nil
}

func (m *fakeMailer) lastCode() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.codes) == 0 {
		return ""
	}
	return m.codes[len(m.codes)-1]
}

func (m *fakeMailer) lastRecipient() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.to) == 0 {
		return ""
	}
	return m.to[len(m.to)-1]
}

type fakeDispatcher struct {
	mu    sync.Mutex
	calls int
	fail  error
}

func (d *fakeDispatcher) Transfer(_ context.Context, recipient string, amount float64) (*RewardReceipt, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.fail != nil {
		return nil, d.fail
	}
	sig := fmt.Sprintf("sig-%s-%d", recipient[:4], d.calls)
	return &RewardReceipt{
		Signature:   sig,
		ExplorerURL: "https://explorer.solana.com/tx/" + sig + "?cluster=devnet",
		Amount:      amount,
	}, nil
}

func (d *fakeDispatcher) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

type fakeComposer struct {
	pages   []placement.Size
	out     []byte
	lastReq struct {
		elements []*placement.Element
		proof    domain.DigitalProof
	}
	parseErr error
}

func (c *fakeComposer) PageSizes(_ context.Context, pdf []byte) ([]placement.Size, error) {
	if c.parseErr != nil {
		return nil, c.parseErr
	}
	if len(pdf) == 0 {
		return nil, domain.ErrMalformedDocument
	}
	return c.pages, nil
}

func (c *fakeComposer) Compose(_ context.Context, _ []byte, elements []*placement.Element, proof domain.DigitalProof, _ []byte, _ float64) ([]byte, error) {
	c.lastReq.elements = elements
	c.lastReq.proof = proof
	return c.out, nil
}

var errBoom = errors.New("boom")
