package service

import (
	"context"
	"sync"
	"time"

	"coupon-engine/internal/model"
	apperrors "coupon-engine/pkg/errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore is an in-memory stand-in for the persistent store. It
// implements every repository interface, the recipient directory,
// and TxRunner. Transactions are serialized on txMu and rolled back
// from a snapshot on error, which gives the engine the same
// all-or-nothing contract the real store provides.
type memStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	coupons  map[string]model.Coupon               // coupon id hex -> coupon
	single   map[string]model.SingleRecipientPolicy // coupon hex + "|" + recipient
	windowed map[string]model.WindowedPolicy       // coupon id hex
	ledger   []model.Redemption
	known    map[string]bool // recipient directory

	failAll    error // every store call fails
	failAppend error // only ledger appends fail
}

func newMemStore() *memStore {
	return &memStore{
		coupons:  make(map[string]model.Coupon),
		single:   make(map[string]model.SingleRecipientPolicy),
		windowed: make(map[string]model.WindowedPolicy),
		known:    make(map[string]bool),
	}
}

func (s *memStore) addRecipient(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.known[id] = true
}

func pairKey(couponID primitive.ObjectID, recipientID string) string {
	return couponID.Hex() + "|" + recipientID
}

// --- TxRunner ---

type memSnapshot struct {
	coupons   map[string]model.Coupon
	single    map[string]model.SingleRecipientPolicy
	windowed  map[string]model.WindowedPolicy
	ledgerLen int
}

func (s *memStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(ctx); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := memSnapshot{
		coupons:   make(map[string]model.Coupon, len(s.coupons)),
		single:    make(map[string]model.SingleRecipientPolicy, len(s.single)),
		windowed:  make(map[string]model.WindowedPolicy, len(s.windowed)),
		ledgerLen: len(s.ledger),
	}
	for k, v := range s.coupons {
		snap.coupons[k] = v
	}
	for k, v := range s.single {
		snap.single[k] = v
	}
	for k, v := range s.windowed {
		snap.windowed[k] = v
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.coupons = snap.coupons
	s.single = snap.single
	s.windowed = snap.windowed
	s.ledger = s.ledger[:snap.ledgerLen]
}

// --- CouponRepository ---

func (s *memStore) Create(ctx context.Context, coupon *model.Coupon) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return s.failAll
	}

	for _, existing := range s.coupons {
		if existing.Code == coupon.Code {
			return apperrors.ErrCodeTaken
		}
	}
	s.coupons[coupon.ID.Hex()] = *coupon
	return nil
}

func (s *memStore) GetActiveByCode(ctx context.Context, code string) (*model.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return nil, s.failAll
	}

	for _, c := range s.coupons {
		if c.Code == code && c.IsActive {
			coupon := c
			return &coupon, nil
		}
	}
	return nil, apperrors.ErrCouponNotFound
}

func (s *memStore) CodeExists(ctx context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return false, s.failAll
	}

	for _, c := range s.coupons {
		if c.Code == code {
			return true, nil
		}
	}
	return false, nil
}

// deactivate flips is_active, simulating an out-of-band status change.
func (s *memStore) deactivate(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.coupons {
		if c.Code == code {
			c.IsActive = false
			s.coupons[id] = c
		}
	}
}

// --- PolicyRepository ---

func (s *memStore) CreateSingleRecipient(ctx context.Context, policy *model.SingleRecipientPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return s.failAll
	}

	s.single[pairKey(policy.CouponID, policy.RecipientID)] = *policy
	return nil
}

func (s *memStore) GetSingleRecipient(ctx context.Context, couponID primitive.ObjectID, recipientID string) (*model.SingleRecipientPolicy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return nil, s.failAll
	}

	policy, ok := s.single[pairKey(couponID, recipientID)]
	if !ok {
		return nil, nil
	}
	return &policy, nil
}

func (s *memStore) MarkRedeemed(ctx context.Context, policyID primitive.ObjectID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return s.failAll
	}

	for key, policy := range s.single {
		if policy.ID == policyID {
			if policy.IsRedeemed {
				return apperrors.Reject(apperrors.ReasonAlreadyRedeemed)
			}
			stamped := at
			policy.IsRedeemed = true
			policy.RedeemedAt = &stamped
			s.single[key] = policy
			return nil
		}
	}
	return apperrors.Reject(apperrors.ReasonAlreadyRedeemed)
}

func (s *memStore) CreateWindowed(ctx context.Context, policy *model.WindowedPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return s.failAll
	}

	s.windowed[policy.CouponID.Hex()] = *policy
	return nil
}

func (s *memStore) GetWindowed(ctx context.Context, couponID primitive.ObjectID) (*model.WindowedPolicy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return nil, s.failAll
	}

	policy, ok := s.windowed[couponID.Hex()]
	if !ok {
		return nil, apperrors.ErrCouponNotFound
	}
	return &policy, nil
}

func (s *memStore) IncrementUsage(ctx context.Context, couponID primitive.ObjectID, limit *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return s.failAll
	}

	policy, ok := s.windowed[couponID.Hex()]
	if !ok || (limit != nil && policy.CurrentUsageCount >= *limit) {
		return apperrors.Reject(apperrors.ReasonUsageLimitExceeded)
	}
	policy.CurrentUsageCount++
	s.windowed[couponID.Hex()] = policy
	return nil
}

// --- RedemptionRepository ---

func (s *memStore) Append(ctx context.Context, redemption *model.Redemption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return s.failAll
	}
	if s.failAppend != nil {
		return s.failAppend
	}

	s.ledger = append(s.ledger, *redemption)
	return nil
}

func (s *memStore) CountForRecipient(ctx context.Context, couponID primitive.ObjectID, recipientID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return 0, s.failAll
	}

	count := 0
	for _, entry := range s.ledger {
		if entry.CouponID == couponID && entry.RecipientID == recipientID {
			count++
		}
	}
	return count, nil
}

func (s *memStore) ledgerSize(couponID primitive.ObjectID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, entry := range s.ledger {
		if entry.CouponID == couponID {
			count++
		}
	}
	return count
}

func (s *memStore) usageCount(couponID primitive.ObjectID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.windowed[couponID.Hex()].CurrentUsageCount
}

// --- RecipientDirectory ---

func (s *memStore) Exists(ctx context.Context, recipientID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return false, s.failAll
	}
	return s.known[recipientID], nil
}

// fakeClock is a settable Clock for deterministic window checks.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
