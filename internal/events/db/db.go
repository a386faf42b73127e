package db

import (
	"context"

	"github.com/uptrace/bun"

	"guestlist/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateEvent(ctx context.Context, event *models.Event) error {
	_, err := d.Bun.NewInsert().Model(event).Returning("*").Exec(ctx)
	return err
}

func (d *DB) GetEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	err := d.Bun.NewSelect().
		Model(&events).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (d *DB) GetEventByID(ctx context.Context, id int64) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (d *DB) UpdateEvent(ctx context.Context, event *models.Event) error {
	_, err := d.Bun.NewUpdate().
		Model(event).
		Column("name", "description", "invitation_count", "weapon_form").
		Where("id = ?", event.ID).
		Returning("*").
		Exec(ctx)
	return err
}

// DeleteEvent removes the event row together with every admin, user and
// guest scoped to it. The cascade lives here, not in foreign keys.
func (d *DB) DeleteEvent(ctx context.Context, id int64) error {
	if _, err := d.Bun.NewDelete().
		Model((*models.Event)(nil)).
		Where("id = ?", id).
		Exec(ctx); err != nil {
		return err
	}

	if _, err := d.Bun.NewDelete().
		Model((*models.Admin)(nil)).
		Where("event_id = ?", id).
		Exec(ctx); err != nil {
		return err
	}

	if _, err := d.Bun.NewDelete().
		Model((*models.Guest)(nil)).
		Where("event_id = ?", id).
		Exec(ctx); err != nil {
		return err
	}

	_, err := d.Bun.NewDelete().
		Model((*models.User)(nil)).
		Where("event_id = ?", id).
		Exec(ctx)
	return err
}

func (d *DB) EventExists(ctx context.Context, id int64) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.Event)(nil)).
		Where("id = ?", id).
		Exists(ctx)
}
