package db

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"guestlist/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateGuest(ctx context.Context, guest *models.Guest) error {
	_, err := d.Bun.NewInsert().Model(guest).Returning("*").Exec(ctx)
	return err
}

func (d *DB) GetGuestByUUID(ctx context.Context, uuid string) (*models.Guest, error) {
	var guest models.Guest
	err := d.Bun.NewSelect().
		Model(&guest).
		Where("uuid = ?", uuid).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &guest, nil
}

// GetGuestForTicket resolves the public ticket lookup: the key is either the
// guest's UUID or their national id number. The event name rides along for
// the scanner page.
func (d *DB) GetGuestForTicket(ctx context.Context, key string) (*models.Guest, error) {
	var guest models.Guest
	err := d.Bun.NewSelect().
		Model(&guest).
		ColumnExpr("guest.*").
		ColumnExpr("events.name AS event_name").
		Join("LEFT JOIN events ON events.id = guest.event_id").
		Where("guest.uuid = ?", key).
		WhereOr("guest.id_number = ?", key).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &guest, nil
}

func (d *DB) GuestExistsByIDNumber(ctx context.Context, idNumber string) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.Guest)(nil)).
		Where("id_number = ?", idNumber).
		Exists(ctx)
}

func (d *DB) CountGuestsByUser(ctx context.Context, userID int64) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.Guest)(nil)).
		Where("user_id = ?", userID).
		Count(ctx)
}

func (d *DB) ListGuestsByUser(ctx context.Context, userID int64) ([]models.Guest, error) {
	var guests []models.Guest
	err := d.Bun.NewSelect().
		Model(&guests).
		Where("user_id = ?", userID).
		Order("full_name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return guests, nil
}

// ListGuests is the admin listing: joined with the owning inviter, filtered
// and paginated.
func (d *DB) ListGuests(ctx context.Context, filter models.GuestFilter) ([]models.Guest, error) {
	var guests []models.Guest
	q := d.Bun.NewSelect().
		Model(&guests).
		ColumnExpr("guest.*").
		ColumnExpr("users.full_name AS user_full_name").
		ColumnExpr("users.id_number AS user_id_number").
		Join("LEFT JOIN users ON users.id = guest.user_id")
	if filter.EventID != 0 {
		q = q.Where("guest.event_id = ?", filter.EventID)
	}
	if filter.UserID != 0 {
		q = q.Where("guest.user_id = ?", filter.UserID)
	}
	err := q.Order("guest.full_name ASC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return guests, nil
}

func (d *DB) CountGuests(ctx context.Context, filter models.GuestFilter) (int, error) {
	q := d.Bun.NewSelect().Model((*models.Guest)(nil))
	if filter.EventID != 0 {
		q = q.Where("event_id = ?", filter.EventID)
	}
	if filter.UserID != 0 {
		q = q.Where("user_id = ?", filter.UserID)
	}
	return q.Count(ctx)
}

func (d *DB) ListGuestsByEvent(ctx context.Context, eventID int64) ([]models.Guest, error) {
	var guests []models.Guest
	err := d.Bun.NewSelect().
		Model(&guests).
		Where("event_id = ?", eventID).
		Order("full_name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return guests, nil
}

func (d *DB) UpdateGuest(ctx context.Context, guest *models.Guest) error {
	_, err := d.Bun.NewUpdate().
		Model(guest).
		Column("full_name", "id_number", "weapon").
		Where("uuid = ?", guest.UUID).
		Returning("*").
		Exec(ctx)
	return err
}

func (d *DB) DeleteGuestByUUID(ctx context.Context, uuid string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Guest)(nil)).
		Where("uuid = ?", uuid).
		Exec(ctx)
	return err
}

// MarkEntered stamps the check-in time. Re-scans simply overwrite it.
func (d *DB) MarkEntered(ctx context.Context, id int64, at time.Time) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Guest)(nil)).
		Set("entered_at = ?", at).
		Where("id = ?", id).
		Exec(ctx)
	return err
}
