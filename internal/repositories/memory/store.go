// Package memory is an in-process implementation of the repository ports.
// Transactions are serialized behind one mutex and roll back by discarding a
// working copy of the state.
package memory

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/SscSPs/community_billing/internal/core/domain"
	portsrepo "github.com/SscSPs/community_billing/internal/core/ports/repositories"
)

// errReadOnly is returned by writes issued inside ReadOnly.
var errReadOnly = errors.New("memory store: write in read-only transaction")

type state struct {
	seq int64

	accounts     map[string]domain.Account
	lots         map[string]domain.Lot
	reservations map[string]domain.Reservation
	entries      []domain.LedgerEntry
	debts        []domain.Debt

	codes         map[string]domain.ReferralCode
	registrations map[string]domain.ReferralRegistration // by referee account
	events        []domain.AttributionEvent

	bonuses map[string]domain.ReferralBonus
	payouts map[string]domain.PayoutRequest
}

func newState() *state {
	return &state{
		accounts:      map[string]domain.Account{},
		lots:          map[string]domain.Lot{},
		reservations:  map[string]domain.Reservation{},
		codes:         map[string]domain.ReferralCode{},
		registrations: map[string]domain.ReferralRegistration{},
		bonuses:       map[string]domain.ReferralBonus{},
		payouts:       map[string]domain.PayoutRequest{},
	}
}

// clone copies everything a transaction may mutate. Stored values are only
// ever replaced, never modified in place, so a shallow map copy suffices
// except for reservation allocations.
func (s *state) clone() *state {
	cp := &state{
		seq:           s.seq,
		accounts:      maps.Clone(s.accounts),
		lots:          maps.Clone(s.lots),
		reservations:  make(map[string]domain.Reservation, len(s.reservations)),
		entries:       slices.Clone(s.entries),
		debts:         slices.Clone(s.debts),
		codes:         maps.Clone(s.codes),
		registrations: maps.Clone(s.registrations),
		events:        slices.Clone(s.events),
		bonuses:       maps.Clone(s.bonuses),
		payouts:       maps.Clone(s.payouts),
	}
	for id, r := range s.reservations {
		cp.reservations[id] = r.Clone()
	}
	return cp
}

func (s *state) nextSeq() int64 {
	s.seq++
	return s.seq
}

// txState is the view of the state handed to one unit of work.
type txState struct {
	*state
	readOnly bool
}

func (t *txState) writable() error {
	if t.readOnly {
		return errReadOnly
	}
	return nil
}

// Store implements portsrepo.TransactionManager over process memory.
type Store struct {
	mu    sync.RWMutex
	state *state
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{state: newState()}
}

var _ portsrepo.TransactionManager = (*Store)(nil)

// InTx runs fn against a working copy that replaces the live state only when fn succeeds.
func (s *Store) InTx(ctx context.Context, fn portsrepo.TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(ctx, newProvider(&txState{state: work})); err != nil {
		return err
	}
	s.state = work
	return nil
}

// ReadOnly runs fn against the live state. Concurrent readers share it.
func (s *Store) ReadOnly(ctx context.Context, fn portsrepo.TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(ctx, newProvider(&txState{state: s.state, readOnly: true}))
}

func newProvider(tx *txState) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:  &accountRepository{tx},
		LedgerRepo:   &ledgerRepository{tx},
		ReferralRepo: &referralRepository{tx},
		BonusRepo:    &bonusRepository{tx},
		PayoutRepo:   &payoutRepository{tx},
	}
}
