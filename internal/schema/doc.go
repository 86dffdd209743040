// Package schema holds the content-type registry and its persisted snapshot
// format. The registry answers capability questions (does a model carry an
// attribute, is it workflow-eligible) and the snapshot comparison drives the
// version-gated bootstrap migrations.
package schema
