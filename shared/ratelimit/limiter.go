package ratelimit

import (
	"context"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// HostLimiter keeps one token bucket per upstream host. Waiting on one host
// never delays requests to another.
type HostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limits   map[string]rate.Limit
	fallback rate.Limit
	burst    int
}

// NewHostLimiter allows perSecond requests per host unless a host has its
// own limit set with SetLimit. A non-positive rate disables limiting.
func NewHostLimiter(perSecond float64, burst int) *HostLimiter {
	if burst < 1 {
		burst = 1
	}
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		limits:   make(map[string]rate.Limit),
		fallback: toLimit(perSecond),
		burst:    burst,
	}
}

func toLimit(perSecond float64) rate.Limit {
	if perSecond <= 0 {
		return rate.Inf
	}
	return rate.Limit(perSecond)
}

// SetLimit overrides the rate for host.
func (h *HostLimiter) SetLimit(host string, perSecond float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	limit := toLimit(perSecond)
	h.limits[host] = limit
	if l, ok := h.limiters[host]; ok {
		l.SetLimit(limit)
	}
}

func (h *HostLimiter) limiter(host string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()

	if l, ok := h.limiters[host]; ok {
		return l
	}
	limit, ok := h.limits[host]
	if !ok {
		limit = h.fallback
	}
	l := rate.NewLimiter(limit, h.burst)
	h.limiters[host] = l
	return l
}

// Wait blocks until a request to host is allowed or ctx is done.
func (h *HostLimiter) Wait(ctx context.Context, host string) error {
	return h.limiter(host).Wait(ctx)
}

// Transport wraps base (http.DefaultTransport when nil) so every request
// waits for its host's limiter first.
func (h *HostLimiter) Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &transport{limiter: h, base: base}
}

// Client returns an *http.Client using Transport.
func (h *HostLimiter) Client() *http.Client {
	return &http.Client{Transport: h.Transport(nil)}
}

type transport struct {
	limiter *HostLimiter
	base    http.RoundTripper
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context(), req.URL.Host); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}
