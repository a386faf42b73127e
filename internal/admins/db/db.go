package db

import (
	"context"

	"github.com/uptrace/bun"

	"guestlist/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateAdmin(ctx context.Context, admin *models.Admin) error {
	_, err := d.Bun.NewInsert().Model(admin).Returning("*").Exec(ctx)
	return err
}

// GetAdmins lists admins, optionally filtered to one event.
func (d *DB) GetAdmins(ctx context.Context, eventID int64) ([]models.Admin, error) {
	var admins []models.Admin
	q := d.Bun.NewSelect().Model(&admins).Order("id ASC")
	if eventID != 0 {
		q = q.Where("event_id = ?", eventID)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return admins, nil
}

func (d *DB) GetAdminByID(ctx context.Context, id int64) (*models.Admin, error) {
	var admin models.Admin
	err := d.Bun.NewSelect().
		Model(&admin).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

func (d *DB) GetAdminByUsername(ctx context.Context, username string) (*models.Admin, error) {
	var admin models.Admin
	err := d.Bun.NewSelect().
		Model(&admin).
		Where("username = ?", username).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

func (d *DB) UpdateAdmin(ctx context.Context, admin *models.Admin) error {
	_, err := d.Bun.NewUpdate().
		Model(admin).
		Column("username", "event_id", "password").
		Where("id = ?", admin.ID).
		Returning("*").
		Exec(ctx)
	return err
}

func (d *DB) DeleteAdmin(ctx context.Context, id int64) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Admin)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}
