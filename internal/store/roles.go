package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// CreateRole inserts a role.
func (q *queries) CreateRole(ctx context.Context, code, name string) (*Role, error) {
	res, err := q.exec(ctx, `INSERT INTO roles (code, name) VALUES (?, ?)`, code, name)
	if err != nil {
		return nil, fmt.Errorf("insert role: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return &Role{ID: id, Code: code, Name: name}, nil
}

// Roles returns all roles ordered by id.
func (q *queries) Roles(ctx context.Context) ([]*Role, error) {
	rows, err := q.db.QueryContext(ensureContext(ctx), `SELECT id, code, name FROM roles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	var roles []*Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Code, &role.Name); err != nil {
			return nil, err
		}
		roles = append(roles, &role)
	}
	return roles, rows.Err()
}

// RoleByCode fetches a role by its unique code, or nil when absent.
func (q *queries) RoleByCode(ctx context.Context, code string) (*Role, error) {
	var role Role
	err := q.db.QueryRowContext(ensureContext(ctx),
		`SELECT id, code, name FROM roles WHERE code = ?`, code).
		Scan(&role.ID, &role.Code, &role.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get role by code: %w", err)
	}
	return &role, nil
}

// CreateUser inserts a user and assigns the given roles.
func (q *queries) CreateUser(ctx context.Context, email, displayName string, roleIDs ...int64) (*User, error) {
	res, err := q.exec(ctx, `INSERT INTO users (email, display_name) VALUES (?, ?)`, email, displayName)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	for _, roleID := range roleIDs {
		if _, err := q.exec(ctx, `INSERT INTO user_roles (user_id, role_id) VALUES (?, ?)`, id, roleID); err != nil {
			return nil, fmt.Errorf("assign role: %w", err)
		}
	}
	return &User{ID: id, Email: email, DisplayName: displayName}, nil
}

// UserByID fetches a user by identifier, or nil when absent.
func (q *queries) UserByID(ctx context.Context, id int64) (*User, error) {
	var user User
	err := q.db.QueryRowContext(ensureContext(ctx),
		`SELECT id, email, display_name FROM users WHERE id = ?`, id).
		Scan(&user.ID, &user.Email, &user.DisplayName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// UserRoleIDs returns the role ids held by a user.
func (q *queries) UserRoleIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := q.db.QueryContext(ensureContext(ctx),
		`SELECT role_id FROM user_roles WHERE user_id = ? ORDER BY role_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("user roles: %w", err)
	}
	defer rows.Close()

	var roleIDs []int64
	for rows.Next() {
		var roleID int64
		if err := rows.Scan(&roleID); err != nil {
			return nil, err
		}
		roleIDs = append(roleIDs, roleID)
	}
	return roleIDs, rows.Err()
}
