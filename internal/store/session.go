package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/mockprep/internal/interview"
)

const sessionsTable = "sessions"

// SessionRepo persists interview sessions as JSON documents with an
// optimistic version column.
type SessionRepo struct {
	db      *sql.DB
	dialect string
}

var _ interview.Repository = (*SessionRepo)(nil)

// CreateSession inserts s with version 1.
func (r *SessionRepo) CreateSession(ctx context.Context, s *interview.Session) error {
	s.Version = 1
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	query, args := entsql.Dialect(r.dialect).
		Insert(sessionsTable).
		Columns("id", "user_id", "status", "data", "version", "created_at", "updated_at").
		Values(s.ID, s.UserID, string(s.Status), string(data), s.Version, toMillis(s.CreatedAt), toMillis(s.UpdatedAt)).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetSession loads a session by id.
func (r *SessionRepo) GetSession(ctx context.Context, id string) (*interview.Session, error) {
	query, args := entsql.Dialect(r.dialect).
		Select("data", "version").
		From(entsql.Table(sessionsTable)).
		Where(entsql.EQ("id", id)).
		Query()

	var data string
	var version int64
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&data, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &interview.Error{
			Kind:    interview.KindNotFound,
			Op:      "get session",
			Message: fmt.Sprintf("interview %s not found", id),
			Err:     ErrNotFound,
		}
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}
	return decodeSession(data, version)
}

// UpdateSession stores s if its Version still matches the stored one and
// bumps s.Version on success.
func (r *SessionRepo) UpdateSession(ctx context.Context, s *interview.Session) error {
	expected := s.Version
	next := *s
	next.Version = expected + 1
	data, err := json.Marshal(&next)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	query, args := entsql.Dialect(r.dialect).
		Update(sessionsTable).
		Set("status", string(s.Status)).
		Set("data", string(data)).
		Set("version", next.Version).
		Set("updated_at", toMillis(s.UpdatedAt)).
		Where(entsql.And(entsql.EQ("id", s.ID), entsql.EQ("version", expected))).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if n == 0 {
		if _, err := r.GetSession(ctx, s.ID); err != nil {
			return err
		}
		return &interview.Error{
			Kind:    interview.KindConcurrency,
			Op:      "update session",
			Message: "the interview was modified by another request; retry",
			Err:     ErrVersionConflict,
		}
	}
	s.Version = next.Version
	return nil
}

// ListSessions returns a user's sessions, newest first.
func (r *SessionRepo) ListSessions(ctx context.Context, userID string) ([]*interview.Session, error) {
	query, args := entsql.Dialect(r.dialect).
		Select("data", "version").
		From(entsql.Table(sessionsTable)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id")).
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []*interview.Session
	for rows.Next() {
		var data string
		var version int64
		if err := rows.Scan(&data, &version); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		s, err := decodeSession(data, version)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteSession removes a session. Deleting a missing session is not an
// error.
func (r *SessionRepo) DeleteSession(ctx context.Context, id string) error {
	query, args := entsql.Dialect(r.dialect).
		Delete(sessionsTable).
		Where(entsql.EQ("id", id)).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func decodeSession(data string, version int64) (*interview.Session, error) {
	var s interview.Session
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	// The column is authoritative.
	s.Version = version
	return &s, nil
}
