package db

import (
	"context"

	"github.com/uptrace/bun"

	"guestlist/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateUser(ctx context.Context, user *models.User) error {
	_, err := d.Bun.NewInsert().Model(user).Returning("*").Exec(ctx)
	return err
}

// GetUserByID returns the user joined with its event's name and quota.
func (d *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		ColumnExpr("\"user\".*").
		ColumnExpr("events.name AS event_name").
		ColumnExpr("events.invitation_count AS event_invitation_count").
		Join("LEFT JOIN events ON events.id = \"user\".event_id").
		Where("\"user\".id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *DB) GetUserByIDNumber(ctx context.Context, idNumber string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("id_number = ?", idNumber).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *DB) UserExists(ctx context.Context, id int64) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.User)(nil)).
		Where("id = ?", id).
		Exists(ctx)
}

func (d *DB) UserExistsByIDNumber(ctx context.Context, idNumber string) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.User)(nil)).
		Where("id_number = ?", idNumber).
		Exists(ctx)
}

func (d *DB) ListUsersByEvent(ctx context.Context, eventID int64, offset, limit int) ([]models.User, error) {
	var users []models.User
	err := d.Bun.NewSelect().
		Model(&users).
		Where("event_id = ?", eventID).
		Order("full_name ASC").
		Offset(offset).
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (d *DB) CountUsersByEvent(ctx context.Context, eventID int64) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.User)(nil)).
		Where("event_id = ?", eventID).
		Count(ctx)
}

func (d *DB) UpdateUser(ctx context.Context, user *models.User) error {
	_, err := d.Bun.NewUpdate().
		Model(user).
		Column("id_number", "full_name").
		Where("id = ?", user.ID).
		Returning("*").
		Exec(ctx)
	return err
}

// DeleteUser removes the user and every guest they invited.
func (d *DB) DeleteUser(ctx context.Context, id int64) error {
	if _, err := d.Bun.NewDelete().
		Model((*models.User)(nil)).
		Where("id = ?", id).
		Exec(ctx); err != nil {
		return err
	}

	_, err := d.Bun.NewDelete().
		Model((*models.Guest)(nil)).
		Where("user_id = ?", id).
		Exec(ctx)
	return err
}
