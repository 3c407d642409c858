package config

import (
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("iberseis-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Estimator.SpeedKmS != 7.0 {
		t.Errorf("expected default speed 7.0, got %g", cfg.Estimator.SpeedKmS)
	}
	if cfg.Telemetry.ServiceName != "iberseis-test" {
		t.Errorf("expected service name iberseis-test, got %s", cfg.Telemetry.ServiceName)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("IBERSEIS_SERVER_PORT", "9090")
	t.Setenv("IBERSEIS_ESTIMATOR_SPEED_KM_S", "6.1")

	cfg, err := Load("iberseis-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Estimator.SpeedKmS != 6.1 {
		t.Errorf("expected speed 6.1, got %g", cfg.Estimator.SpeedKmS)
	}
}

func TestLoad_RejectsNonPositiveSpeed(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("IBERSEIS_ESTIMATOR_SPEED_KM_S", "0")

	_, err := Load("iberseis-test")
	if err == nil || !strings.Contains(err.Error(), "estimator.speed_km_s") {
		t.Fatalf("expected speed validation error, got %v", err)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for empty config")
	}
	for _, want := range []string{"server.port", "database.host", "nats.url", "fdsn.event_url", "temporal.task_queue"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in error, got:\n%s", want, err)
		}
	}
}
