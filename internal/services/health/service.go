package health

import (
	"context"
	"sort"
	"time"
)

// Check pings one dependency.
type Check func(ctx context.Context) error

// Service encapsulates health-related checks.
type Service struct {
	checks  map[string]Check
	timeout time.Duration
}

// NewService constructs a new health service.
func NewService() *Service {
	return &Service{checks: map[string]Check{}, timeout: 2 * time.Second}
}

// Register adds a named readiness check.
func (s *Service) Register(name string, check Check) {
	if check != nil {
		s.checks[name] = check
	}
}

// Status returns a simple liveness payload.
func (s *Service) Status() map[string]bool {
	return map[string]bool{"ok": true}
}

// Ready runs every registered check. The map holds "ok" or the error text.
func (s *Service) Ready(ctx context.Context) (bool, map[string]string) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	ok := true
	out := make(map[string]string, len(names))
	for _, name := range names {
		if err := s.checks[name](ctx); err != nil {
			ok = false
			out[name] = err.Error()
			continue
		}
		out[name] = "ok"
	}
	return ok, out
}
