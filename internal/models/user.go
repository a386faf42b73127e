package models

import (
	"time"

	"github.com/uptrace/bun"
)

// User is an inviter: a person authorized to register guests for one event,
// bounded by the event's invitation quota.
type User struct {
	bun.BaseModel `bun:"table:users"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	EventID   int64     `bun:"event_id,notnull" json:"event_id"`
	IDNumber  string    `bun:"id_number,notnull" json:"id_number"`
	FullName  string    `bun:"full_name,notnull" json:"full_name"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`

	// Joined from events on single-user reads.
	EventName            string `bun:"event_name,scanonly" json:"event_name,omitempty"`
	EventInvitationCount int    `bun:"event_invitation_count,scanonly" json:"event_invitation_count,omitempty"`
}
