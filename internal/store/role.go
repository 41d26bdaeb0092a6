package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/abhisek/mockprep/internal/interview"
)

const rolesTable = "roles"

// Visibility controls who may start interviews from a saved role.
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

// Role is a saved, reusable role block.
type Role struct {
	ID          string              `json:"id" yaml:"id"`
	Title       string              `json:"title" yaml:"title"`
	Description string              `json:"description" yaml:"description"`
	RoleBlock   interview.RoleBlock `json:"role_block" yaml:"role_block"`
	CreatorID   string              `json:"creator_id" yaml:"creator_id"`
	Visibility  Visibility          `json:"visibility" yaml:"visibility"`
	UsageCount  int64               `json:"usage_count" yaml:"usage_count"`
	CreatedAt   time.Time           `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at" yaml:"updated_at"`
}

var roleColumns = []string{
	"id", "title", "description", "role_block", "creator_id",
	"visibility", "usage_count", "created_at", "updated_at",
}

// RoleRepo persists saved roles.
type RoleRepo struct {
	db      *sql.DB
	dialect string
}

var _ interview.RoleSource = (*RoleRepo)(nil)

// CreateRole validates and inserts role. ID and timestamps are filled in
// when empty and roles are public unless marked private.
func (r *RoleRepo) CreateRole(ctx context.Context, role *Role) error {
	const op = "create role"
	fields := map[string]string{}
	if strings.TrimSpace(role.Title) == "" {
		fields["title"] = "is required"
	}
	if strings.TrimSpace(role.CreatorID) == "" {
		fields["creator_id"] = "is required"
	}
	switch role.Visibility {
	case "":
		role.Visibility = VisibilityPublic
	case VisibilityPrivate, VisibilityPublic:
	default:
		fields["visibility"] = "must be private or public"
	}
	if len(fields) > 0 {
		return interview.ValidationError(op, fields)
	}
	role.RoleBlock = role.RoleBlock.Normalize()
	if err := role.RoleBlock.Validate(); err != nil {
		return err
	}

	if role.ID == "" {
		role.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if role.CreatedAt.IsZero() {
		role.CreatedAt = now
	}
	role.UpdatedAt = role.CreatedAt

	block, err := json.Marshal(role.RoleBlock)
	if err != nil {
		return fmt.Errorf("encode role block: %w", err)
	}

	query, args := entsql.Dialect(r.dialect).
		Insert(rolesTable).
		Columns(roleColumns...).
		Values(
			role.ID, role.Title, role.Description, string(block), role.CreatorID,
			string(role.Visibility), role.UsageCount, toMillis(role.CreatedAt), toMillis(role.UpdatedAt),
		).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert role: %w", err)
	}
	return nil
}

// Get returns a role by id.
func (r *RoleRepo) Get(ctx context.Context, id string) (*Role, error) {
	query, args := entsql.Dialect(r.dialect).
		Select(roleColumns...).
		From(entsql.Table(rolesTable)).
		Where(entsql.EQ("id", id)).
		Query()

	role, err := scanRole(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, roleNotFound(id)
	}
	return role, err
}

// GetRole implements interview.RoleSource.
func (r *RoleRepo) GetRole(ctx context.Context, id string) (*interview.SavedRole, error) {
	role, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &interview.SavedRole{
		ID:        role.ID,
		Title:     role.Title,
		Role:      role.RoleBlock,
		CreatorID: role.CreatorID,
		Public:    role.Visibility == VisibilityPublic,
	}, nil
}

// ListRoles returns the roles visible to userID: their own plus every
// public role, most used first.
func (r *RoleRepo) ListRoles(ctx context.Context, userID string) ([]*Role, error) {
	query, args := entsql.Dialect(r.dialect).
		Select(roleColumns...).
		From(entsql.Table(rolesTable)).
		Where(entsql.Or(
			entsql.EQ("creator_id", userID),
			entsql.EQ("visibility", string(VisibilityPublic)),
		)).
		OrderBy(entsql.Desc("usage_count"), entsql.Desc("created_at"), "id").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query roles: %w", err)
	}
	defer rows.Close()

	var out []*Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}

// DeleteRole removes a role owned by userID. Roles of other users are
// reported as not found.
func (r *RoleRepo) DeleteRole(ctx context.Context, id, userID string) error {
	query, args := entsql.Dialect(r.dialect).
		Delete(rolesTable).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("creator_id", userID))).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("delete role: %w", err)
	} else if n == 0 {
		return roleNotFound(id)
	}
	return nil
}

// UpdateVisibility changes the visibility of a role. Only the creator may
// change it; other users get a forbidden error.
func (r *RoleRepo) UpdateVisibility(ctx context.Context, id, userID string, visibility Visibility) error {
	const op = "update role visibility"
	switch visibility {
	case VisibilityPrivate, VisibilityPublic:
	default:
		return interview.ValidationError(op, map[string]string{"visibility": "must be private or public"})
	}

	query, args := entsql.Dialect(r.dialect).
		Update(rolesTable).
		Set("visibility", string(visibility)).
		Set("updated_at", toMillis(time.Now())).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("creator_id", userID))).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update role visibility: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update role visibility: %w", err)
	}
	if n > 0 {
		return nil
	}

	// Nothing matched: tell a missing role apart from someone else's.
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	return &interview.Error{
		Kind:    interview.KindForbidden,
		Op:      op,
		Message: "only the creator can change the visibility of a role",
	}
}

// IncrementRoleUsage bumps the usage counter of a role.
func (r *RoleRepo) IncrementRoleUsage(ctx context.Context, id string) error {
	query, args := entsql.Dialect(r.dialect).
		Update(rolesTable).
		Add("usage_count", 1).
		Set("updated_at", toMillis(time.Now())).
		Where(entsql.EQ("id", id)).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("increment role usage: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("increment role usage: %w", err)
	} else if n == 0 {
		return roleNotFound(id)
	}
	return nil
}

func roleNotFound(id string) error {
	return &interview.Error{
		Kind:    interview.KindNotFound,
		Op:      "get role",
		Message: fmt.Sprintf("role %s not found", id),
		Err:     ErrNotFound,
	}
}

func scanRole(row rowScanner) (*Role, error) {
	var role Role
	var block, visibility string
	var created, updated int64
	err := row.Scan(
		&role.ID, &role.Title, &role.Description, &block, &role.CreatorID,
		&visibility, &role.UsageCount, &created, &updated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan role: %w", err)
	}
	if err := json.Unmarshal([]byte(block), &role.RoleBlock); err != nil {
		return nil, fmt.Errorf("decode role block: %w", err)
	}
	role.Visibility = Visibility(visibility)
	role.CreatedAt = fromMillis(created)
	role.UpdatedAt = fromMillis(updated)
	return &role, nil
}
