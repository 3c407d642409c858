package http_test

import (
	"context"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/samirrijal/iberseis/api"
)

func loadSpec(t *testing.T) *openapi3.T {
	t.Helper()
	loader := &openapi3.Loader{IsExternalRefsAllowed: false}
	spec, err := loader.LoadFromData(api.OpenAPI)
	if err != nil {
		t.Fatalf("failed to parse OpenAPI spec: %v", err)
	}
	return spec
}

// TestOpenAPISpec validates the OpenAPI document and checks it covers the routes.
func TestOpenAPISpec(t *testing.T) {
	spec := loadSpec(t)

	if err := spec.Validate(context.Background()); err != nil {
		t.Fatalf("OpenAPI spec validation failed: %v", err)
	}

	expectedPaths := []string{
		"/v1/travel-time",
		"/travel-time/",
		"/v1/arrivals",
		"/v1/stations",
		"/v1/stations/nearby",
		"/v1/stations/{network}/{code}",
		"/v1/stations/{network}/{code}/travel-time",
		"/v1/health",
		"/v1/ready",
		"/graphql",
	}
	for _, path := range expectedPaths {
		if item := spec.Paths.Find(path); item == nil {
			t.Errorf("expected path %s not found in spec", path)
		}
	}

	expectedSchemas := []string{
		"GeoPoint",
		"TravelTime",
		"TravelTimeMetrics",
		"TravelTimeEstimate",
		"Station",
		"ArrivalPrediction",
		"Pagination",
		"APIError",
	}
	for _, schema := range expectedSchemas {
		if spec.Components.Schemas[schema] == nil {
			t.Errorf("expected schema %s not found", schema)
		}
	}

	t.Logf("OpenAPI spec valid: %d paths, %d schemas", len(spec.Paths.Map()), len(spec.Components.Schemas))
}

// TestOpenAPIInfo verifies spec metadata.
func TestOpenAPIInfo(t *testing.T) {
	spec := loadSpec(t)

	if spec.Info.Title != "IberSeis Travel-Time API" {
		t.Errorf("expected title 'IberSeis Travel-Time API', got %q", spec.Info.Title)
	}
	if spec.Info.Version != "1.0.0" {
		t.Errorf("expected version 1.0.0, got %q", spec.Info.Version)
	}
	if spec.Info.Description == "" {
		t.Error("expected non-empty description")
	}
	if len(spec.Servers) == 0 {
		t.Fatal("expected at least one server")
	}
}

// TestOpenAPITravelTimeContract pins the response fields of the travel-time endpoint.
func TestOpenAPITravelTimeContract(t *testing.T) {
	spec := loadSpec(t)

	metrics := spec.Components.Schemas["TravelTimeMetrics"].Value
	for _, field := range []string{"distance_km", "estimated_p_wave_arrival_seconds", "assumed_speed_km_s"} {
		if metrics.Properties[field] == nil {
			t.Errorf("TravelTimeMetrics is missing %s", field)
		}
	}

	op := spec.Paths.Find("/travel-time/").Get
	if op == nil || !op.Deprecated {
		t.Error("legacy /travel-time/ should be marked deprecated")
	}
}
