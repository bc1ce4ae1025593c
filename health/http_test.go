package health

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLivenessHandler(t *testing.T) {
	rr := httptest.NewRecorder()
	LivenessHandler()(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK || rr.Body.String() != "OK" {
		t.Errorf("liveness = %d %q", rr.Code, rr.Body.String())
	}
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name     string
		result   Result
		wantCode int
		wantBody string
	}{
		{"healthy", Healthy(""), http.StatusOK, "OK"},
		{"degraded", Degraded(""), http.StatusOK, "DEGRADED"},
		{"unhealthy", Unhealthy("", errors.New("x")), http.StatusServiceUnavailable, "UNHEALTHY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := NewAggregator(AggregatorConfig{})
			agg.Register(fixed("auth.login", tt.result))

			rr := httptest.NewRecorder()
			ReadinessHandler(agg)(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			if rr.Code != tt.wantCode || rr.Body.String() != tt.wantBody {
				t.Errorf("readiness = %d %q, want %d %q", rr.Code, rr.Body.String(), tt.wantCode, tt.wantBody)
			}
		})
	}
}

func TestDetailedHandler(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{})
	agg.Register(fixed("auth.login", Unhealthy("login rejected", errors.New("status 401")).WithDetails(map[string]any{"state": "no_token"})))
	agg.Register(fixed("auth.circuit", Healthy("circuit closed")))

	mux := http.NewServeMux()
	RegisterHandlers(mux, agg)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("code = %d, want 503", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var body HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "unhealthy" || len(body.Checks) != 2 {
		t.Errorf("body = %+v", body)
	}
	login := body.Checks["auth.login"]
	if login.Error != "status 401" || login.Details["state"] != "no_token" {
		t.Errorf("auth.login = %+v", login)
	}
}

func TestSingleCheckHandler(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{})
	agg.Register(fixed("auth.login", Healthy("token cached")))

	rr := httptest.NewRecorder()
	SingleCheckHandler(agg, "auth.login")(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	var body CheckResponse
	_ = json.NewDecoder(rr.Body).Decode(&body)
	if rr.Code != http.StatusOK || body.Message != "token cached" {
		t.Errorf("single = %d %+v", rr.Code, body)
	}

	rr = httptest.NewRecorder()
	SingleCheckHandler(agg, "missing")(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("missing = %d, want 404", rr.Code)
	}
}
