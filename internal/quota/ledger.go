package quota

import (
	"sync"

	"github.com/covestore/cove/internal/database"
	"github.com/covestore/cove/internal/model"
	"github.com/pkg/errors"
)

// ErrLimitExceeded is returned when a reservation would overshoot the plan limit.
var ErrLimitExceeded = errors.New("storage limit exceeded")

// Limits maps a plan to its byte allowance.
type Limits map[model.Plan]int64

// DefaultLimits are the stock plan allowances.
var DefaultLimits = Limits{
	model.PlanStarter:  1 << 30,
	model.PlanStandard: 10 << 30,
	model.PlanPremium:  100 << 30,
}

// A Ledger tracks the bytes consumed by each credential against its plan limit.
// Reserve and Release are serialized per owner so two concurrent writers
// cannot both pass the check against a stale counter.
type Ledger struct {
	db     database.Client
	limits Limits

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLedger returns a new Ledger. A nil limits falls back on DefaultLimits.
func NewLedger(db database.Client, limits Limits) *Ledger {
	if limits == nil {
		limits = DefaultLimits
	}

	return &Ledger{
		db:     db,
		limits: limits,
		locks:  make(map[string]*sync.Mutex),
	}
}

// Reserve charges delta bytes to the owner.
// It fails with ErrLimitExceeded when the plan limit would be exceeded,
// in which case the counter is left untouched.
func (l *Ledger) Reserve(ownerID string, delta int64) error {
	lock := l.lock(ownerID)
	lock.Lock()
	defer lock.Unlock()

	credential, err := l.db.FindCredential(ownerID)
	if err != nil {
		return errors.Wrap(err, "reserve")
	}

	limit, ok := l.limits[credential.Plan]
	if !ok {
		// Configuration fault, not a quota rejection.
		return errors.Errorf("reserve: no limit configured for plan %q", credential.Plan)
	}

	if credential.BytesUsed+delta > limit {
		return ErrLimitExceeded
	}

	credential.BytesUsed += delta
	return errors.Wrap(l.db.Save(credential), "reserve")
}

// Release refunds delta bytes to the owner, clamping the counter at zero.
func (l *Ledger) Release(ownerID string, delta int64) error {
	lock := l.lock(ownerID)
	lock.Lock()
	defer lock.Unlock()

	credential, err := l.db.FindCredential(ownerID)
	if err != nil {
		return errors.Wrap(err, "release")
	}

	credential.BytesUsed -= delta
	if credential.BytesUsed < 0 {
		credential.BytesUsed = 0
	}

	return errors.Wrap(l.db.Save(credential), "release")
}

func (l *Ledger) lock(ownerID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.locks[ownerID]
	if !ok {
		lock = new(sync.Mutex)
		l.locks[ownerID] = lock
	}
	return lock
}
