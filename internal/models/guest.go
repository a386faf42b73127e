package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Guest is identified publicly by its unguessable UUID, which doubles as the
// entry ticket. EventID is always a copy of the owning user's event_id.
type Guest struct {
	bun.BaseModel `bun:"table:guests"`

	ID        int64      `bun:"id,pk,autoincrement" json:"id"`
	UserID    int64      `bun:"user_id,notnull" json:"user_id"`
	EventID   int64      `bun:"event_id,notnull" json:"event_id"`
	UUID      string     `bun:"uuid,notnull,unique" json:"uuid"`
	FullName  string     `bun:"full_name,notnull" json:"full_name"`
	IDNumber  string     `bun:"id_number,notnull" json:"id_number"`
	Weapon    bool       `bun:"weapon" json:"weapon"`
	EnteredAt *time.Time `bun:"entered_at,nullzero" json:"entered_at"`
	CreatedAt time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`

	// Joined columns, populated on admin list / public ticket reads.
	EventName    string `bun:"event_name,scanonly" json:"event_name,omitempty"`
	UserFullName string `bun:"user_full_name,scanonly" json:"user_full_name,omitempty"`
	UserIDNumber string `bun:"user_id_number,scanonly" json:"user_id_number,omitempty"`
}

// GuestFilter narrows admin guest listings. Zero values mean "no filter".
type GuestFilter struct {
	EventID int64
	UserID  int64
	Offset  int
	Limit   int
}
