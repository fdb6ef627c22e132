package observability

import (
	"context"
	"errors"
	"testing"
)

func TestHealthChecker_AllHealthy(t *testing.T) {
	hc := NewHealthChecker()
	hc.RegisterRedisCheck("redis", func(ctx context.Context) error { return nil })

	report := hc.Check(context.Background())
	if report.Status != HealthStatusHealthy {
		t.Fatalf("expected healthy, got %s", report.Status)
	}
	if _, ok := report.Components["redis"]; !ok {
		t.Fatal("expected redis component in report")
	}
}

func TestHealthChecker_UnhealthyDependencyFailsOverall(t *testing.T) {
	hc := NewHealthChecker()
	hc.RegisterRedisCheck("redis", func(ctx context.Context) error { return nil })
	hc.RegisterRedisCheck("queue_redis", func(ctx context.Context) error { return errors.New("connection refused") })

	report := hc.Check(context.Background())
	if report.Status != HealthStatusUnhealthy {
		t.Fatalf("expected unhealthy, got %s", report.Status)
	}
	if report.Components["queue_redis"].Status != HealthStatusUnhealthy {
		t.Fatalf("expected queue_redis unhealthy, got %s", report.Components["queue_redis"].Status)
	}
}

func TestHealthChecker_NoChecksIsHealthy(t *testing.T) {
	hc := NewHealthChecker()
	report := hc.Check(context.Background())
	if report.Status != HealthStatusHealthy {
		t.Fatalf("expected healthy with no checks registered, got %s", report.Status)
	}
	if report.Uptime < 0 {
		t.Fatal("expected non-negative uptime")
	}
}
