package storage

import (
	"context"

	"github.com/fusionprime/frontdesk/libs/db"
)

type Notification struct {
	AppointmentID string
	Channel       string
	Recipient     string
	Body          string
	Status        string
	ProviderID    string
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Insert(ctx context.Context, n Notification) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (appointment_id, channel, recipient, body, status, provider_id)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, n.AppointmentID, n.Channel, n.Recipient, n.Body, n.Status, n.ProviderID)
	return err
}
