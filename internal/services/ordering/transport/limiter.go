package transport

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const senderIdleTTL = 10 * time.Minute

// senderLimiter hands out one token bucket per sender and forgets senders
// that stay idle past senderIdleTTL.
type senderLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	senders   map[string]*sender
	lastPrune time.Time
	clock     func() time.Time
}

type sender struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newSenderLimiter(limit rate.Limit, burst int) *senderLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &senderLimiter{
		limit:   limit,
		burst:   burst,
		senders: make(map[string]*sender),
		clock:   time.Now,
	}
}

// Allow reports whether id may send one more update now.
func (l *senderLimiter) Allow(id string) bool {
	if l == nil || l.limit == rate.Inf {
		return true
	}
	l.mu.Lock()
	now := l.clock()
	l.pruneLocked(now)
	s, ok := l.senders[id]
	if !ok {
		s = &sender{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.senders[id] = s
	}
	s.lastSeen = now
	l.mu.Unlock()
	return s.limiter.AllowN(now, 1)
}

func (l *senderLimiter) pruneLocked(now time.Time) {
	if now.Sub(l.lastPrune) < time.Minute {
		return
	}
	l.lastPrune = now
	for id, s := range l.senders {
		if now.Sub(s.lastSeen) > senderIdleTTL {
			delete(l.senders, id)
		}
	}
}

func (l *senderLimiter) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.senders)
}
