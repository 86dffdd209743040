package testsupport

import (
	"testing"

	"redline/internal/schema"
)

// NewRegistry builds a schema registry whose listed content types are all
// workflow eligible.
func NewRegistry(t testing.TB, eligibleUIDs ...string) *schema.Registry {
	t.Helper()

	models := make([]schema.Model, 0, len(eligibleUIDs))
	for _, uid := range eligibleUIDs {
		models = append(models, schema.Model{UID: uid, WorkflowEligible: true})
	}
	registry, err := schema.NewRegistry(models...)
	if err != nil {
		t.Fatalf("schema.NewRegistry: %v", err)
	}
	return registry
}
