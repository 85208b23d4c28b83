package server

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/giygas/pgx-report-api/logging"
	"github.com/giygas/pgx-report-api/metrics"
	"github.com/juju/ratelimit"
	"gopkg.in/yaml.v3"
)

const (
	defaultRate        = 3
	defaultCapacity    = 1000
	defaultCost        = 20
	rateLimiterCleanup = 5 * time.Minute
)

// RouteCost is the token price of the requests matching a path.
// An empty method matches every method; prefix matches every path under Path.
type RouteCost struct {
	Method string `yaml:"method"`
	Path   string `yaml:"path"`
	Prefix bool   `yaml:"prefix"`
	Cost   int64  `yaml:"cost"`
}

func (c RouteCost) matches(r *http.Request) bool {
	if c.Method != "" && !strings.EqualFold(c.Method, r.Method) {
		return false
	}
	if c.Prefix {
		return strings.HasPrefix(r.URL.Path, c.Path)
	}
	return r.URL.Path == c.Path
}

// RateLimitConfig sizes the per-client token buckets and prices the routes
type RateLimitConfig struct {
	Rate        float64     `yaml:"rate"`
	Capacity    int64       `yaml:"capacity"`
	DefaultCost int64       `yaml:"default_cost"`
	Costs       []RouteCost `yaml:"costs"`
}

// DefaultRateLimitConfig returns the built-in bucket size and route costs
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Rate:        defaultRate,
		Capacity:    defaultCapacity,
		DefaultCost: defaultCost,
		Costs: []RouteCost{
			{Path: "/metrics", Cost: 0},
			{Path: "/health", Cost: 5},
			{Method: http.MethodGet, Path: "/v1/report", Cost: 5},
			{Method: http.MethodPost, Path: "/v1/report", Cost: 200},
			{Method: http.MethodDelete, Path: "/v1/report", Cost: 50},
			{Path: "/v1/report/reload", Cost: 200},
			{Path: "/v1/patient", Cost: 5},
			{Path: "/v1/drugs/", Prefix: true, Cost: 10},
		},
	}
}

func applyDefaults(cfg RateLimitConfig) RateLimitConfig {
	if cfg.Rate <= 0 {
		cfg.Rate = defaultRate
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = defaultCapacity
	}
	if cfg.DefaultCost <= 0 {
		cfg.DefaultCost = defaultCost
	}
	if cfg.Costs == nil {
		cfg.Costs = DefaultRateLimitConfig().Costs
	}
	return cfg
}

// ParseRateLimitConfig loads YAML bytes, filling unset values with the defaults
func ParseRateLimitConfig(data []byte) (RateLimitConfig, error) {
	var cfg RateLimitConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return RateLimitConfig{}, fmt.Errorf("invalid rate limit file: %w", err)
	}
	cfg = applyDefaults(cfg)

	for _, c := range cfg.Costs {
		if c.Path == "" {
			return RateLimitConfig{}, fmt.Errorf("rate limit cost without a path")
		}
		if c.Cost < 0 || c.Cost > cfg.Capacity {
			return RateLimitConfig{}, fmt.Errorf("cost %d for %s is outside [0, %d]", c.Cost, c.Path, cfg.Capacity)
		}
	}
	return cfg, nil
}

// LoadRateLimitConfig reads the YAML file at path. An empty path gives the defaults.
func LoadRateLimitConfig(path string) (RateLimitConfig, error) {
	if path == "" {
		return DefaultRateLimitConfig(), nil
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return RateLimitConfig{}, fmt.Errorf("failed to read rate limit file: %w", err)
	}
	return ParseRateLimitConfig(data)
}

// RateLimiter manages per-client rate limiting
type RateLimiter struct {
	cfg      RateLimitConfig
	clients  map[string]*ratelimit.Bucket
	mu       sync.RWMutex
	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a rate limiter and starts its bucket cleanup
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		cfg:     applyDefaults(cfg),
		clients: make(map[string]*ratelimit.Bucket),
		stop:    make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

func (rl *RateLimiter) getBucket(clientIP string) *ratelimit.Bucket {
	rl.mu.RLock()
	bucket, exists := rl.clients[clientIP]
	rl.mu.RUnlock()

	if !exists {
		rl.mu.Lock()
		if bucket, exists = rl.clients[clientIP]; !exists {
			bucket = ratelimit.NewBucketWithRate(rl.cfg.Rate, rl.cfg.Capacity)
			rl.clients[clientIP] = bucket
			metrics.RateLimiterBucketsTotal.Set(float64(len(rl.clients)))
		}
		rl.mu.Unlock()
	}

	return bucket
}

// cleanup removes clients whose bucket has refilled
func (rl *RateLimiter) cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for ip, bucket := range rl.clients {
		if bucket.Available() == bucket.Capacity() {
			delete(rl.clients, ip)
			removed++
		}
	}
	metrics.RateLimiterBucketsTotal.Set(float64(len(rl.clients)))
	return removed
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rateLimiterCleanup)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			if removed := rl.cleanup(); removed > 0 {
				logging.Debug("Rate limiter buckets released", "count", removed)
			}
		}
	}
}

// Stop ends the bucket cleanup
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) tokenCost(r *http.Request) int64 {
	for _, c := range rl.cfg.Costs {
		if c.matches(r) {
			return c.Cost
		}
	}
	return rl.cfg.DefaultCost
}

// Handler implements rate limiting using token buckets keyed by client address
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	limit := strconv.FormatInt(rl.cfg.Capacity, 10)
	rate := strconv.FormatFloat(rl.cfg.Rate, 'f', -1, 64)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bucket := rl.getBucket(clientAddr(r))
		tokenCost := rl.tokenCost(r)

		w.Header().Set("X-RateLimit-Limit", limit)
		w.Header().Set("X-RateLimit-Rate", rate)

		if bucket.TakeAvailable(tokenCost) < tokenCost {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", "60")
			logging.Warn("Rate limit exceeded", "remote_addr", r.RemoteAddr, "path", r.URL.Path, "cost", tokenCost)
			respondWithError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(bucket.Available(), 10))
		next.ServeHTTP(w, r)
	})
}
