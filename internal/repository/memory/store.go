package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/google/uuid"

	"doctrack/internal/domain"
	"doctrack/internal/port"
)

// state is the workflow data. A transaction works on a copy and swaps it in on commit.
type state struct {
	requests     map[uuid.UUID]domain.Request
	requestCodes map[string]uuid.UUID
	gates        map[uuid.UUID]domain.GateDocument
	gateCodes    map[string]uuid.UUID
	audit        map[uuid.UUID][]domain.AuditEntry
	idemKeys     map[string]domain.AuditEntry
	signatures   map[uuid.UUID][]domain.Signature
	seq          int64
}

func newState() *state {
	return &state{
		requests:     make(map[uuid.UUID]domain.Request),
		requestCodes: make(map[string]uuid.UUID),
		gates:        make(map[uuid.UUID]domain.GateDocument),
		gateCodes:    make(map[string]uuid.UUID),
		audit:        make(map[uuid.UUID][]domain.AuditEntry),
		idemKeys:     make(map[string]domain.AuditEntry),
		signatures:   make(map[uuid.UUID][]domain.Signature),
	}
}

// clone copies the maps. Slices are shared and must only be grown after slices.Clip.
func (s *state) clone() *state {
	return &state{
		requests:     maps.Clone(s.requests),
		requestCodes: maps.Clone(s.requestCodes),
		gates:        maps.Clone(s.gates),
		gateCodes:    maps.Clone(s.gateCodes),
		audit:        maps.Clone(s.audit),
		idemKeys:     maps.Clone(s.idemKeys),
		signatures:   maps.Clone(s.signatures),
		seq:          s.seq,
	}
}

// Store is a thread-safe in-process document store. It backs the "memory" store driver
// and the engine tests.
type Store struct {
	mu   sync.Mutex
	data *state

	dirMu         sync.RWMutex
	departments   map[int64]domain.Department
	users         map[int64]domain.User
	notifications []domain.Notification
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		data:        newState(),
		departments: make(map[int64]domain.Department),
		users:       make(map[int64]domain.User),
	}
}

// view runs fn against the transaction copy when bound to one, otherwise against the
// committed data under the store lock.
func (st *Store) view(tx *state, fn func(s *state) error) error {
	if tx != nil {
		return fn(tx)
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return fn(st.data)
}

func (st *Store) repositories(tx *state) port.Repositories {
	return port.Repositories{
		Requests:   &requestRepo{store: st, tx: tx},
		Gates:      &gateDocumentRepo{store: st, tx: tx},
		Audit:      &auditLogRepo{store: st, tx: tx},
		Signatures: &signatureRepo{store: st, tx: tx},
	}
}

// Repositories implements port.TxManager.
func (st *Store) Repositories() port.Repositories {
	return st.repositories(nil)
}

// WithinTx implements port.TxManager. Transactions are serialized on the store lock.
func (st *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos port.Repositories) error) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := st.data.clone()
	if err := fn(ctx, st.repositories(work)); err != nil {
		return err
	}
	st.data = work
	return nil
}

var _ port.TxManager = (*Store)(nil)

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
