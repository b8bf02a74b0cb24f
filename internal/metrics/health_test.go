package metrics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func resetHealthChecker() {
	healthChecker = &HealthChecker{
		components: make(map[string]ComponentHealth),
		startTime:  time.Now(),
	}
}

func TestRegisterComponent(t *testing.T) {
	resetHealthChecker()

	RegisterComponent("redis", true, "connected")

	if len(healthChecker.components) != 1 {
		t.Errorf("expected 1 component, got %d", len(healthChecker.components))
	}

	comp := healthChecker.components["redis"]
	if !comp.Healthy {
		t.Error("component should be healthy")
	}
	if comp.Message != "connected" {
		t.Errorf("expected message 'connected', got '%s'", comp.Message)
	}
}

func TestGetHealthAllHealthy(t *testing.T) {
	resetHealthChecker()

	RegisterComponent("sourceapi", true, "")
	RegisterComponent("redis", true, "")

	health := GetHealth()

	if health.Status != "healthy" {
		t.Errorf("expected status 'healthy', got '%s'", health.Status)
	}
	if len(health.Components) != 2 {
		t.Errorf("expected 2 components, got %d", len(health.Components))
	}
}

func TestGetHealthOneUnhealthy(t *testing.T) {
	resetHealthChecker()

	RegisterComponent("sourceapi", true, "")
	RegisterComponent("vectorstore", false, "connection refused")

	health := GetHealth()

	if health.Status != "unhealthy" {
		t.Errorf("expected status 'unhealthy', got '%s'", health.Status)
	}
	if health.Components["vectorstore"] != "unhealthy: connection refused" {
		t.Errorf("unexpected component message: %s", health.Components["vectorstore"])
	}
}

func TestUpdateComponentOverwritesExisting(t *testing.T) {
	resetHealthChecker()

	RegisterComponent("redis", true, "connected")
	UpdateComponent("redis", false, "timeout")

	health := GetHealth()
	if health.Status != "unhealthy" {
		t.Errorf("expected status 'unhealthy' after update, got '%s'", health.Status)
	}
}

func TestRecordTickCompletedSetsLastTickAt(t *testing.T) {
	resetHealthChecker()

	now := time.Now()
	RecordTickCompleted(now)

	health := GetHealth()
	if !health.LastTickAt.Equal(now) {
		t.Errorf("expected LastTickAt %v, got %v", now, health.LastTickAt)
	}
}

func TestGetReadinessAllRegistered(t *testing.T) {
	resetHealthChecker()

	RegisterComponent("redis", true, "")
	RegisterComponent("vectorstore", true, "")
	RegisterComponent("sourceapi", true, "")

	readiness := GetReadiness()
	if readiness.Status != "ready" {
		t.Errorf("expected status 'ready', got '%s'", readiness.Status)
	}
}

func TestGetReadinessMissingComponent(t *testing.T) {
	resetHealthChecker()

	RegisterComponent("redis", true, "")

	readiness := GetReadiness()
	if readiness.Status != "not_ready" {
		t.Errorf("expected status 'not_ready', got '%s'", readiness.Status)
	}
	if readiness.Components["vectorstore"] != "not registered" {
		t.Errorf("expected vectorstore unregistered, got '%s'", readiness.Components["vectorstore"])
	}
}

func TestGetReadinessUnhealthyComponent(t *testing.T) {
	resetHealthChecker()

	RegisterComponent("redis", true, "")
	RegisterComponent("vectorstore", false, "timeout")
	RegisterComponent("sourceapi", true, "")

	readiness := GetReadiness()
	if readiness.Status != "not_ready" {
		t.Errorf("expected status 'not_ready', got '%s'", readiness.Status)
	}
}

func TestHealthHandlerServesJSON(t *testing.T) {
	resetHealthChecker()
	RegisterComponent("redis", true, "")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	HealthHandler()(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var status HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if status.Status != "healthy" {
		t.Errorf("expected 'healthy', got '%s'", status.Status)
	}
}

func TestHealthHandlerReturnsServiceUnavailableWhenUnhealthy(t *testing.T) {
	resetHealthChecker()
	RegisterComponent("redis", false, "down")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	HealthHandler()(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestReadyHandlerServesJSON(t *testing.T) {
	resetHealthChecker()
	RegisterComponent("redis", true, "")
	RegisterComponent("vectorstore", true, "")
	RegisterComponent("sourceapi", true, "")

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()

	ReadyHandler()(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestLivenessHandlerAlwaysOK(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	rec := httptest.NewRecorder()

	LivenessHandler()(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
