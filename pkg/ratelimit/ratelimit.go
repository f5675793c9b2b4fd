package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Limiter keeps one token bucket per client IP
type Limiter struct {
	visitors map[string]*rate.Limiter
	mu       sync.Mutex
	r        rate.Limit
	b        int

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a limiter allowing requestsPerMinute per IP with the given burst.
// Idle visitors are dropped every 3 minutes until Stop is called.
func New(requestsPerMinute, burst int) *Limiter {
	l := &Limiter{
		visitors: make(map[string]*rate.Limiter),
		r:        rate.Limit(float64(requestsPerMinute) / 60.0),
		b:        burst,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go l.cleanupVisitors()
	return l
}

// Allow reports whether a request from ip may proceed now
func (l *Limiter) Allow(ip string) bool {
	l.mu.Lock()
	limiter, ok := l.visitors[ip]
	if !ok {
		limiter = rate.NewLimiter(l.r, l.b)
		l.visitors[ip] = limiter
	}
	l.mu.Unlock()

	return limiter.Allow()
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() {
		close(l.stop)
	})
	<-l.done
}

func (l *Limiter) cleanupVisitors() {
	defer close(l.done)

	ticker := time.NewTicker(3 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.prune()
		}
	}
}

// prune drops visitors whose bucket is full again
func (l *Limiter) prune() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for ip, limiter := range l.visitors {
		if limiter.Tokens() >= float64(l.b) {
			delete(l.visitors, ip)
		}
	}
}

// Middleware rejects requests over the limit with 429
func (l *Limiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests. Please try again later.",
			})
			return
		}
		c.Next()
	}
}
