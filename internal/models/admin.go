package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Admin is an event-scoped administrator row. The super-admin is not stored
// here: it is a sentinel identity (see SuperAdminID) checked against config.
type Admin struct {
	bun.BaseModel `bun:"table:admins"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	EventID   int64     `bun:"event_id,notnull" json:"event_id"`
	Username  string    `bun:"username,notnull" json:"username"`
	Password  string    `bun:"password,notnull" json:"-"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}
