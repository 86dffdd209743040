package schema

import (
	"encoding/json"
	"fmt"
)

// Version is the current schema snapshot version. It gates version-threshold
// bootstrap migrations; the stage link tables were renamed at version 5.
const Version = 5

// ModelSnapshot is the persisted shape of one model.
type ModelSnapshot struct {
	Attributes       []string `json:"attributes"`
	WorkflowEligible bool     `json:"workflowEligible"`
}

// HasAttribute reports whether the snapshotted model carried the attribute.
func (m ModelSnapshot) HasAttribute(name string) bool {
	for _, attr := range m.Attributes {
		if attr == name {
			return true
		}
	}
	return false
}

// Snapshot captures the registry shape persisted between application runs.
// Bootstrap migrations compare the previous run's snapshot against the
// freshly loaded registry to detect structural changes.
type Snapshot struct {
	Version int                      `json:"version"`
	Models  map[string]ModelSnapshot `json:"models"`
}

// Model returns the snapshotted model for uid, if it was present.
func (s Snapshot) Model(uid string) (ModelSnapshot, bool) {
	model, ok := s.Models[uid]
	return model, ok
}

// Snapshot serializes the registry's current shape.
func (r *Registry) Snapshot() Snapshot {
	models := make(map[string]ModelSnapshot, len(r.models))
	for uid, model := range r.models {
		models[uid] = ModelSnapshot{
			Attributes:       sortedAttributes(model.Attributes),
			WorkflowEligible: model.WorkflowEligible,
		}
	}
	return Snapshot{Version: Version, Models: models}
}

// EncodeSnapshot renders a snapshot as JSON for persistence.
func EncodeSnapshot(snapshot Snapshot) (string, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("encode schema snapshot: %w", err)
	}
	return string(data), nil
}

// DecodeSnapshot parses a persisted snapshot payload.
func DecodeSnapshot(payload string) (Snapshot, error) {
	var snapshot Snapshot
	if err := json.Unmarshal([]byte(payload), &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("decode schema snapshot: %w", err)
	}
	if snapshot.Models == nil {
		snapshot.Models = map[string]ModelSnapshot{}
	}
	return snapshot, nil
}
