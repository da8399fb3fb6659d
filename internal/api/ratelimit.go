package api

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"wave-arena/internal/game"
)

// RateLimitConfig configures the per-address limit on the HTTP API
type RateLimitConfig struct {
	RequestsPerSecond float64       // Requests allowed per second per address
	Burst             int           // Maximum burst size
	IdleTTL           time.Duration // Buckets unused this long are evicted
	TrustProxy        bool          // Take the address from X-Forwarded-For / X-Real-IP
}

// DefaultRateLimitConfig suits a few spectator pages polling /api/state
var DefaultRateLimitConfig = RateLimitConfig{
	RequestsPerSecond: 10,
	Burst:             20,
	IdleTTL:           10 * time.Minute,
}

type ipBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter throttles /api requests per client address. Player traffic
// never passes through it; sockets are limited by ConnectionSlots and InputGate.
type IPRateLimiter struct {
	config RateLimitConfig

	mu      sync.Mutex
	buckets map[string]*ipBucket

	stop     chan struct{}
	stopOnce sync.Once
}

// NewIPRateLimiter creates a limiter and starts its eviction loop
func NewIPRateLimiter(cfg RateLimitConfig) *IPRateLimiter {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRateLimitConfig.RequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultRateLimitConfig.Burst
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultRateLimitConfig.IdleTTL
	}
	rl := &IPRateLimiter{
		config:  cfg,
		buckets: make(map[string]*ipBucket),
		stop:    make(chan struct{}),
	}
	go rl.evictLoop()
	return rl
}

// Stop ends the eviction loop
func (rl *IPRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Allow spends one token from ip's bucket
func (rl *IPRateLimiter) Allow(ip string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[ip]
	if !ok {
		b = &ipBucket{limiter: rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.Burst)}
		rl.buckets[ip] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

// Middleware answers 429 once a client address runs out of tokens
func (rl *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(ClientIP(r, rl.config.TrustProxy)) {
			RecordConnectionRejected("rate_limit")
			w.Header().Set("Retry-After", "1")
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *IPRateLimiter) evictLoop() {
	ticker := time.NewTicker(rl.config.IdleTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case now := <-ticker.C:
			rl.evictIdle(now)
		}
	}
}

// evictIdle drops buckets not used since now-IdleTTL. Returns how many went.
func (rl *IPRateLimiter) evictIdle(now time.Time) int {
	cutoff := now.Add(-rl.config.IdleTTL)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	n := 0
	for ip, b := range rl.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(rl.buckets, ip)
			n++
		}
	}
	return n
}

// ClientIP returns the address a request is accounted to. Forwarding headers
// are only honoured behind a trusted proxy; otherwise any client could pick
// its own bucket.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			return strings.TrimSpace(first)
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ConnectionSlots caps concurrent player sockets per address
type ConnectionSlots struct {
	perIP int

	mu   sync.Mutex
	open map[string]int
}

// NewConnectionSlots allows perIP simultaneous sockets from one address
func NewConnectionSlots(perIP int) *ConnectionSlots {
	return &ConnectionSlots{perIP: perIP, open: make(map[string]int)}
}

// Acquire takes a slot for ip. Returns false when the address is at its cap.
func (s *ConnectionSlots) Acquire(ip string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open[ip] >= s.perIP {
		return false
	}
	s.open[ip]++
	return true
}

// Release frees a slot taken by Acquire
func (s *ConnectionSlots) Release(ip string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open[ip] <= 1 {
		delete(s.open, ip)
		return
	}
	s.open[ip]--
}

// Open returns the sockets currently held by ip
func (s *ConnectionSlots) Open(ip string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open[ip]
}

// InputStats summarises inbound input handling across all connections
type InputStats struct {
	Applied    uint64 `json:"applied"`    // handed to the engine
	Deferred   uint64 `json:"deferred"`   // over the limit, held until a token frees up
	Superseded uint64 `json:"superseded"` // held input replaced by a newer one before it was applied
	Invalid    uint64 `json:"invalid"`    // undecodable or not an input message
}

type inputCounters struct {
	applied    atomic.Uint64
	deferred   atomic.Uint64
	superseded atomic.Uint64
	invalid    atomic.Uint64
}

func (c *inputCounters) stats() InputStats {
	return InputStats{
		Applied:    c.applied.Load(),
		Deferred:   c.deferred.Load(),
		Superseded: c.superseded.Load(),
		Invalid:    c.invalid.Load(),
	}
}

// InputGate rate limits one connection's input messages. Input over the limit
// is held rather than dropped: the newest one is applied as soon as the
// limiter has a token, so a key release always reaches the simulation.
type InputGate struct {
	limiter  *rate.Limiter
	apply    func(game.Input)
	counters *inputCounters

	mu      sync.Mutex
	held    game.Input
	holding bool
	timer   *time.Timer
	closed  bool
}

func newInputGate(perSecond float64, burst int, counters *inputCounters, apply func(game.Input)) *InputGate {
	return &InputGate{
		limiter:  rate.NewLimiter(rate.Limit(perSecond), burst),
		apply:    apply,
		counters: counters,
	}
}

// Submit applies in now if the limiter allows, otherwise holds it. apply runs
// under the gate lock so a held input can never overtake a newer one.
func (g *InputGate) Submit(in game.Input) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return
	}
	if g.holding {
		g.held = in
		g.counters.superseded.Add(1)
		RecordWSDropped("rate_limit")
		return
	}
	if g.limiter.Allow() {
		g.counters.applied.Add(1)
		g.apply(in)
		return
	}

	// Book the next token now; the held input is applied when it matures
	res := g.limiter.Reserve()
	if !res.OK() {
		g.counters.superseded.Add(1)
		RecordWSDropped("rate_limit")
		return
	}
	g.held = in
	g.holding = true
	g.counters.deferred.Add(1)
	g.timer = time.AfterFunc(res.Delay(), g.flush)
}

func (g *InputGate) flush() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed || !g.holding {
		return
	}
	g.holding = false
	g.timer = nil
	g.counters.applied.Add(1)
	g.apply(g.held)
}

// Close discards any held input. Submit is a no-op afterwards.
func (g *InputGate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.closed = true
	g.holding = false
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}

// AllowedOrigins lists browser origins accepted for CORS and WebSocket upgrades
// in addition to localhost. A single "*" accepts any origin.
var AllowedOrigins = []string{
	"http://localhost",
	"http://localhost:8080",
	"http://127.0.0.1:8080",
}

// SetAllowedOrigins replaces the origin allow list. Empty entries are skipped.
func SetAllowedOrigins(origins []string) {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) > 0 {
		AllowedOrigins = out
	}
}

// IsAllowedOrigin checks a WebSocket Origin header.
// Non-browser clients send no Origin and are always accepted.
func IsAllowedOrigin(origin string) bool {
	if origin == "" {
		return true
	}

	// Allow localhost with any port
	if strings.HasPrefix(origin, "http://localhost") || strings.HasPrefix(origin, "http://127.0.0.1") {
		return true
	}

	for _, allowed := range AllowedOrigins {
		if allowed == "*" || origin == allowed {
			return true
		}
	}
	return false
}
