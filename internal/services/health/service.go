package health

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

// Check probes one dependency.
type Check func(ctx context.Context) error

// Report is the payload served by the health endpoint.
type Report struct {
	OK     bool              `json:"ok"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Service runs registered dependency checks.
type Service struct {
	timeout time.Duration
	names   []string
	checks  map[string]Check
}

// NewService constructs a new health service.
func NewService() *Service {
	return &Service{timeout: 2 * time.Second, checks: make(map[string]Check)}
}

// Add registers a named check. Nil checks are ignored.
func (s *Service) Add(name string, check Check) *Service {
	if check == nil {
		return s
	}
	if _, exists := s.checks[name]; !exists {
		s.names = append(s.names, name)
		sort.Strings(s.names)
	}
	s.checks[name] = check
	return s
}

// Status runs every check concurrently. The report is OK only when all pass.
func (s *Service) Status(ctx context.Context) Report {
	report := Report{OK: true}
	if len(s.names) == 0 {
		return report
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// Failures are collected per check rather than returned, so one failing
	// dependency does not cancel the others.
	results := make([]error, len(s.names))
	var g errgroup.Group
	for i, name := range s.names {
		check := s.checks[name]
		g.Go(func() error {
			results[i] = check(ctx)
			return nil
		})
	}
	_ = g.Wait()

	report.Checks = make(map[string]string, len(s.names))
	for i, name := range s.names {
		if results[i] != nil {
			report.OK = false
			report.Checks[name] = results[i].Error()
			continue
		}
		report.Checks[name] = "ok"
	}
	return report
}
