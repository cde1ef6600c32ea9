package service

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"doctrack/internal/domain"
)

func entryAt(doc uuid.UUID, at time.Time, seq int64) domain.AuditEntry {
	return domain.AuditEntry{DocumentID: doc, CreatedAt: at, Seq: seq}
}

func TestMergeTimelines(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	base := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)

	lanes := [][]domain.AuditEntry{
		{entryAt(a, base, 1), entryAt(a, base.Add(3*time.Second), 5)},
		{entryAt(b, base.Add(time.Second), 2), entryAt(b, base.Add(3*time.Second), 4)},
		{},
		{entryAt(c, base, 3)},
	}
	merged := mergeTimelines(lanes)

	var seqs []int64
	for _, e := range merged {
		seqs = append(seqs, e.Seq)
	}
	assert.Equal(t, []int64{1, 3, 2, 4, 5}, seqs)
	assert.Empty(t, mergeTimelines(nil))
}

func TestCodeGenerator_MonotonicWithinMillisecond(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)
	g := &codeGenerator{now: func() time.Time { return fixed }}

	assert.Equal(t, "REQ-1700000000000", g.Next("REQ"))
	assert.Equal(t, "CLR-1700000000001", g.Next("CLR"))
	assert.Equal(t, "REQ-1700000000002", g.Next("REQ"))
}

func TestDocLocks(t *testing.T) {
	l := newDocLocks()
	id := uuid.New()

	t.Run("readers share", func(t *testing.T) {
		r1 := l.RLock(id)
		r2 := l.RLock(id)
		r1()
		r2()
	})

	t.Run("writer excludes", func(t *testing.T) {
		var mu sync.Mutex
		var order []string
		unlock := l.Lock(id)
		done := make(chan struct{})
		go func() {
			release := l.Lock(id)
			mu.Lock()
			order = append(order, "second")
			mu.Unlock()
			release()
			close(done)
		}()
		time.Sleep(20 * time.Millisecond)
		mu.Lock()
		order = append(order, "first")
		mu.Unlock()
		unlock()
		<-done
		assert.Equal(t, []string{"first", "second"}, order)
	})

	t.Run("entries are dropped when released", func(t *testing.T) {
		l.Lock(id)()
		l.mu.Lock()
		defer l.mu.Unlock()
		assert.Empty(t, l.locks)
	})
}

func TestResultLabel(t *testing.T) {
	cases := map[string]error{
		"ok":                  nil,
		"not_found":           domain.ErrDocumentNotFound,
		"invalid_transition":  domain.ErrInvalidTransition,
		"unauthorized":        domain.ErrUnauthorized,
		"duplicate_signature": domain.ErrDuplicateSignature,
		"conflict":            domain.ErrConflict,
		"validation":          domain.Validationf("x"),
		"unavailable":         storeErr("op", assert.AnError),
	}
	for want, err := range cases {
		assert.Equal(t, want, resultLabel(err))
	}
	assert.ErrorIs(t, storeErr("op", assert.AnError), domain.ErrUnavailable)
	assert.ErrorIs(t, storeErr("op", domain.ErrConflict), domain.ErrConflict)
}
