// Package api serves the administrative HTTP surface: workflow and stage
// management plus the entry-level stage and assignee operations. Handlers
// are thin; all rules live in the review service, and service errors map
// onto HTTP statuses by kind.
package api
