// Package review implements the review workflow engine: workflow CRUD with
// plan limits, stage-list reconciliation, content-type assignment migration,
// and the entry-level stage and assignee operations behind the permission
// gate. Every multi-step mutation runs inside one store transaction.
package review
