package schema

import (
	"fmt"
	"sort"
	"strings"

	"redline/internal/config"
)

// Built-in model identifiers.
const (
	WorkflowModelUID = "review.workflow"
	StageModelUID    = "review.stage"
	AdminUserUID     = "admin.user"
)

// Attribute names tracked by the bootstrap snapshot comparison.
const (
	AttrContentTypes = "contentTypes"
	AttrColor        = "color"
	AttrPermissions  = "permissions"
	AttrStage        = "stage"
	AttrAssignee     = "assignee"
)

// Model describes one model known to the registry: a content type or one of
// the engine's own aggregates.
type Model struct {
	UID              string
	Collection       string
	Attributes       []string
	WorkflowEligible bool
}

// HasAttribute reports whether the model declares the named attribute.
func (m Model) HasAttribute(name string) bool {
	for _, attr := range m.Attributes {
		if attr == name {
			return true
		}
	}
	return false
}

// Registry is the loaded schema: every model the running application knows
// about, keyed by UID. A Registry is built once at startup and read-only
// afterwards.
type Registry struct {
	models map[string]Model
	order  []string
}

// NewRegistry builds a registry from the given models plus the engine's
// built-in workflow and stage models.
func NewRegistry(models ...Model) (*Registry, error) {
	reg := &Registry{models: make(map[string]Model, len(models)+2)}
	for _, model := range append(builtins(), models...) {
		uid := strings.TrimSpace(model.UID)
		if uid == "" {
			return nil, fmt.Errorf("model with empty uid")
		}
		if _, exists := reg.models[uid]; exists {
			return nil, fmt.Errorf("duplicate model uid %q", uid)
		}
		model.UID = uid
		if model.Collection == "" {
			model.Collection = collectionFromUID(uid)
		}
		reg.models[uid] = model
		reg.order = append(reg.order, uid)
	}
	reg.extendEligible()
	return reg, nil
}

// FromConfig builds the registry from the content-type models declared in
// the configuration file.
func FromConfig(models []config.Model) (*Registry, error) {
	declared := make([]Model, 0, len(models))
	for _, model := range models {
		declared = append(declared, Model{
			UID:              model.UID,
			WorkflowEligible: model.WorkflowEligible,
		})
	}
	return NewRegistry(declared...)
}

// builtins returns the engine's own models with their current attribute sets.
// The attribute lists drive the snapshot comparison at bootstrap, so adding an
// attribute here is what arms the matching backfill migration.
func builtins() []Model {
	return []Model{
		{
			UID:        WorkflowModelUID,
			Collection: "workflows",
			Attributes: []string{"name", "stages", AttrContentTypes},
		},
		{
			UID:        StageModelUID,
			Collection: "stages",
			Attributes: []string{"name", AttrColor, "workflow", AttrPermissions},
		},
	}
}

// extendEligible grafts the stage and assignee relation attributes onto every
// workflow-eligible model, mirroring how the relations are attached to content
// types at registration time.
func (r *Registry) extendEligible() {
	for uid, model := range r.models {
		if !model.WorkflowEligible {
			continue
		}
		for _, attr := range []string{AttrStage, AttrAssignee} {
			if !model.HasAttribute(attr) {
				model.Attributes = append(model.Attributes, attr)
			}
		}
		r.models[uid] = model
	}
}

// Model returns the model registered under uid.
func (r *Registry) Model(uid string) (Model, bool) {
	model, ok := r.models[uid]
	return model, ok
}

// IsWorkflowEligible reports whether the content type may be bound to a
// review workflow. This is the explicit capability query; eligibility is a
// declared property of the model, never inferred from its name.
func (r *Registry) IsWorkflowEligible(uid string) bool {
	model, ok := r.models[uid]
	return ok && model.WorkflowEligible
}

// EligibleUIDs returns the UIDs of all workflow-eligible models in
// registration order.
func (r *Registry) EligibleUIDs() []string {
	var uids []string
	for _, uid := range r.order {
		if r.models[uid].WorkflowEligible {
			uids = append(uids, uid)
		}
	}
	return uids
}

// UIDs returns every registered model UID in registration order.
func (r *Registry) UIDs() []string {
	return append([]string(nil), r.order...)
}

func collectionFromUID(uid string) string {
	collection := strings.NewReplacer(".", "_", "-", "_", "::", "_").Replace(uid)
	return strings.ToLower(collection)
}

// sortedAttributes returns a copy of the attribute list in stable order for
// snapshot encoding.
func sortedAttributes(attrs []string) []string {
	cp := append([]string(nil), attrs...)
	sort.Strings(cp)
	return cp
}
