package service

import (
	"fmt"
	"sync"
	"time"
)

// maxCodeAttempts bounds regeneration after a human code collides with a stored one.
const maxCodeAttempts = 3

// codeGenerator issues "<PREFIX>-<unix millis>" codes that never repeat within the process.
type codeGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func newCodeGenerator() *codeGenerator {
	return &codeGenerator{now: time.Now}
}

func (g *codeGenerator) Next(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return fmt.Sprintf("%s-%d", prefix, ms)
}
