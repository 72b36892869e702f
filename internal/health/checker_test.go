package health

import (
	"context"
	"errors"
	"testing"
)

type fakeProbe struct {
	err   error
	calls int
}

func (p *fakeProbe) Ready(ctx context.Context) error {
	p.calls++
	return p.err
}

func TestChecker_Liveness(t *testing.T) {
	t.Parallel()
	checker := NewChecker(nil)

	response := checker.Liveness(context.Background())

	if response.Status != StatusHealthy {
		t.Errorf("Expected healthy status, got %s", response.Status)
	}
}

func TestChecker_Readiness_AllHealthy(t *testing.T) {
	t.Parallel()
	checker := NewChecker(map[string]ReadinessChecker{
		"docker": &fakeProbe{},
		"store":  &fakeProbe{},
	})

	response := checker.Readiness(context.Background())

	if response.Status != StatusHealthy {
		t.Errorf("Expected healthy status, got %s", response.Status)
	}
	if len(response.Checks) != 2 {
		t.Errorf("Expected 2 checks, got %d", len(response.Checks))
	}
}

func TestChecker_Readiness_FailingDependency(t *testing.T) {
	t.Parallel()
	checker := NewChecker(map[string]ReadinessChecker{
		"docker": &fakeProbe{},
		"store":  &fakeProbe{err: errors.New("connection refused")},
	})

	response := checker.Readiness(context.Background())

	if response.Status != StatusUnhealthy {
		t.Errorf("Expected unhealthy status, got %s", response.Status)
	}

	storeCheck, ok := response.Checks["store"]
	if !ok {
		t.Fatal("Expected store check to be present")
	}
	if storeCheck.Status != StatusUnhealthy {
		t.Errorf("Expected store check to be unhealthy, got %s", storeCheck.Status)
	}
	if storeCheck.Message != "connection refused" {
		t.Errorf("Expected failure message, got %q", storeCheck.Message)
	}
	if dockerCheck := response.Checks["docker"]; dockerCheck.Status != StatusHealthy {
		t.Errorf("Expected docker check to stay healthy, got %s", dockerCheck.Status)
	}
}

func TestChecker_Readiness_CachesResult(t *testing.T) {
	t.Parallel()
	probe := &fakeProbe{}
	checker := NewChecker(map[string]ReadinessChecker{"docker": probe})

	checker.Readiness(context.Background())
	checker.Readiness(context.Background())

	if probe.calls != 1 {
		t.Errorf("Expected 1 probe call for back-to-back checks, got %d", probe.calls)
	}
}

func TestChecker_SkipsNilProbes(t *testing.T) {
	t.Parallel()
	checker := NewChecker(map[string]ReadinessChecker{
		"docker": &fakeProbe{},
		"store":  nil,
	})

	response := checker.Readiness(context.Background())

	if response.Status != StatusHealthy {
		t.Errorf("Expected healthy status, got %s", response.Status)
	}
	if _, ok := response.Checks["store"]; ok {
		t.Error("Expected nil probe to be skipped")
	}
}

func TestResponse_IsHealthy(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		status   Status
		expected bool
	}{
		{"healthy", StatusHealthy, true},
		{"unhealthy", StatusUnhealthy, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			response := &Response{Status: tt.status}
			if response.IsHealthy() != tt.expected {
				t.Errorf("IsHealthy() = %v, want %v", response.IsHealthy(), tt.expected)
			}
		})
	}
}
