package rbac

import (
	"context"
	"errors"
	"fmt"

	"redline/internal/store"
)

// ActionStageTransition is the single permitted stage permission action.
const ActionStageTransition = "review.stage.transition"

// ErrInvalidAction rejects grants whose action is not on the allow-list.
var ErrInvalidAction = errors.New("invalid stage permission action")

// Persistence is the slice of the store the gate needs. Both *store.Store and
// *store.Tx satisfy it, so the gate works inside and outside transactions.
type Persistence interface {
	HasStagePermission(ctx context.Context, roleIDs []int64, action string, stageID int64) (bool, error)
	InsertStagePermissions(ctx context.Context, grants []store.StagePermission) ([]store.StagePermission, error)
	DeleteStagePermissions(ctx context.Context, ids []int64) error
	PermissionsByStage(ctx context.Context, stageID int64) ([]store.StagePermission, error)
	UserRoleIDs(ctx context.Context, userID int64) ([]int64, error)
	RoleByCode(ctx context.Context, code string) (*store.Role, error)
}

// Gate evaluates and manages role → stage-transition permissions.
type Gate struct {
	db Persistence
}

// NewGate returns a permission gate over the given persistence handle.
func NewGate(db Persistence) *Gate {
	return &Gate{db: db}
}

// Can reports whether the context's actor may perform action out of the given
// stage. No actor means not authorized; the super-admin role bypasses the
// grant lookup entirely.
func (g *Gate) Can(ctx context.Context, action string, fromStageID int64) (bool, error) {
	actor, ok := ActorFrom(ctx)
	if !ok {
		return false, nil
	}
	if actor.SuperAdmin {
		return true, nil
	}
	return g.db.HasStagePermission(ctx, actor.RoleIDs, action, fromStageID)
}

// Grant describes one (role, from-stage) permission to register.
type Grant struct {
	Action  string
	RoleID  int64
	StageID int64
}

// RegisterMany creates one permission row per grant. Every grant's action
// must be on the allow-list.
func (g *Gate) RegisterMany(ctx context.Context, grants []Grant) ([]store.StagePermission, error) {
	rows := make([]store.StagePermission, 0, len(grants))
	for _, grant := range grants {
		if grant.Action != ActionStageTransition {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAction, grant.Action)
		}
		rows = append(rows, store.StagePermission{
			Action:  grant.Action,
			RoleID:  grant.RoleID,
			StageID: grant.StageID,
		})
	}
	return g.db.InsertStagePermissions(ctx, rows)
}

// Unregister deletes permission rows by id.
func (g *Gate) Unregister(ctx context.Context, ids []int64) error {
	return g.db.DeleteStagePermissions(ctx, ids)
}

// PermissionsByStage lists the grants currently registered on a stage.
func (g *Gate) PermissionsByStage(ctx context.Context, stageID int64) ([]store.StagePermission, error) {
	return g.db.PermissionsByStage(ctx, stageID)
}

// ActorForUser builds the actor for a stored user, resolving held roles and
// the super-admin bypass.
func (g *Gate) ActorForUser(ctx context.Context, userID int64) (Actor, error) {
	roleIDs, err := g.db.UserRoleIDs(ctx, userID)
	if err != nil {
		return Actor{}, err
	}
	actor := Actor{UserID: userID, RoleIDs: roleIDs}

	super, err := g.db.RoleByCode(ctx, SuperAdminRoleCode)
	if err != nil {
		return Actor{}, err
	}
	if super != nil {
		for _, roleID := range roleIDs {
			if roleID == super.ID {
				actor.SuperAdmin = true
				break
			}
		}
	}
	return actor, nil
}
