package store

import "time"

// Workflow is a named, ordered sequence of stages that content types bind to.
type Workflow struct {
	ID           int64
	Name         string
	StageOrder   []int64
	ContentTypes []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasContentType reports whether uid is in the workflow's assignment list.
func (w *Workflow) HasContentType(uid string) bool {
	for _, ct := range w.ContentTypes {
		if ct == uid {
			return true
		}
	}
	return false
}

// Stage is one step in a workflow's sequence. Position is implied by the
// owning workflow's StageOrder, never stored on the stage itself.
type Stage struct {
	ID         int64
	WorkflowID int64
	Name       string
	Color      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// StagePermission grants a role the right to perform action out of a stage.
type StagePermission struct {
	ID      int64
	Action  string
	RoleID  int64
	StageID int64
}

// Role is an administrative role grantable on stage transitions.
type Role struct {
	ID   int64
	Code string
	Name string
}

// User is an administrative user; assignee pointers reference users.
type User struct {
	ID          int64
	Email       string
	DisplayName string
}

// Entry is a content record of some content type. The engine treats its data
// as opaque and only manages the stage and assignee pointers alongside it.
type Entry struct {
	ID          int64
	DocumentID  string
	ContentType string
	Title       string
	Data        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// StageLink is the polymorphic stage pointer row for one entry.
type StageLink struct {
	ID        int64
	StageID   int64
	EntryID   int64
	EntryType string
}

// AssigneeLink is the polymorphic assignee pointer row for one entry.
type AssigneeLink struct {
	ID        int64
	UserID    int64
	EntryID   int64
	EntryType string
}
