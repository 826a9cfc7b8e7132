package audit

import (
	"context"
	"time"

	"github.com/fusionprime/frontdesk/libs/db"
)

// Repository keeps the login audit trail. Audit writes never block a
// login; callers log and continue on failure.
type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) RecordLogin(ctx context.Context, username string, success bool, remoteIP string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO login_audit (username, success, remote_ip)
		VALUES ($1, $2, $3)
	`, username, success, remoteIP)
	return err
}

type LoginEvent struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Success   bool   `json:"success"`
	RemoteIP  string `json:"remote_ip,omitempty"`
	CreatedAt string `json:"created_at"`
}

func (r *Repository) ListRecent(ctx context.Context, limit int) ([]LoginEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, username, success, remote_ip, created_at
		FROM login_audit
		ORDER BY id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []LoginEvent
	for rows.Next() {
		var e LoginEvent
		var createdAt time.Time
		if err := rows.Scan(&e.ID, &e.Username, &e.Success, &e.RemoteIP, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		events = append(events, e)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return events, nil
}
