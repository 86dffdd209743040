// Package rbac carries the per-request actor context and the stage permission
// gate. The gate is closed by default: a context without an actor is never
// authorized, and only the fixed super-admin role bypasses the grant lookup.
package rbac
