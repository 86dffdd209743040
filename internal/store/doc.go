// Package store provides SQLite persistence for the review workflow engine:
// workflows, stages, stage permissions, roles, users, content entries, the
// polymorphic stage/assignee link rows, per-content-type settings, and the
// schema snapshot consumed by bootstrap migrations.
//
// Multi-step mutations run through Store.WithTx, which guarantees
// commit-or-rollback on every exit path. The same typed query surface is
// available on Store (auto-commit) and on the Tx handle.
package store
