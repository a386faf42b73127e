package guests

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"guestlist/internal/excel"
	"guestlist/internal/logger"
	"guestlist/internal/models"
)

var (
	ErrGuestNotFound     = errors.New("guest not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrEventNotFound     = errors.New("event not found")
	ErrDuplicateIDNumber = errors.New("a guest with that id number already exists")
	ErrQuotaExceeded     = errors.New("maximum number of guests exceeded")
)

type GuestDBLayer interface {
	CreateGuest(ctx context.Context, guest *models.Guest) error
	GetGuestByUUID(ctx context.Context, uuid string) (*models.Guest, error)
	GetGuestForTicket(ctx context.Context, key string) (*models.Guest, error)
	GuestExistsByIDNumber(ctx context.Context, idNumber string) (bool, error)
	CountGuestsByUser(ctx context.Context, userID int64) (int, error)
	ListGuestsByUser(ctx context.Context, userID int64) ([]models.Guest, error)
	ListGuests(ctx context.Context, filter models.GuestFilter) ([]models.Guest, error)
	CountGuests(ctx context.Context, filter models.GuestFilter) (int, error)
	ListGuestsByEvent(ctx context.Context, eventID int64) ([]models.Guest, error)
	UpdateGuest(ctx context.Context, guest *models.Guest) error
	DeleteGuestByUUID(ctx context.Context, uuid string) error
	MarkEntered(ctx context.Context, id int64, at time.Time) error
}

type UserResolver interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

type EventResolver interface {
	GetEventByID(ctx context.Context, id int64) (*models.Event, error)
}

type GuestService struct {
	DB     GuestDBLayer
	Users  UserResolver
	Events EventResolver
	Logger *logger.Logger
	// TicketBaseURL is the frontend origin the QR code points at.
	TicketBaseURL string
}

func NewGuestService(db GuestDBLayer, users UserResolver, events EventResolver, log *logger.Logger, ticketBaseURL string) *GuestService {
	return &GuestService{
		DB:            db,
		Users:         users,
		Events:        events,
		Logger:        log,
		TicketBaseURL: ticketBaseURL,
	}
}

// CreateGuest runs the invitation quota and uniqueness policy, in order:
// owning inviter must exist, their event must exist, the guest id number
// must be unused, and the inviter must still be under the event's quota.
// The checks are sequential reads with no transaction around the final
// insert, which mirrors how the rest of the service talks to the database.
func (s *GuestService) CreateGuest(ctx context.Context, userID int64, fullName, idNumber string, weapon bool) (*models.Guest, error) {
	user, err := s.Users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to resolve user %d: %w", userID, err)
	}

	event, err := s.Events.GetEventByID(ctx, user.EventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to resolve event %d: %w", user.EventID, err)
	}

	taken, err := s.DB.GuestExistsByIDNumber(ctx, idNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to check id number uniqueness: %w", err)
	}
	if taken {
		return nil, ErrDuplicateIDNumber
	}

	count, err := s.DB.CountGuestsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count guests for user %d: %w", userID, err)
	}
	if count >= event.InvitationCount {
		return nil, ErrQuotaExceeded
	}

	guest := &models.Guest{
		UserID:   userID,
		EventID:  user.EventID,
		UUID:     uuid.NewString(),
		FullName: fullName,
		IDNumber: idNumber,
		Weapon:   weapon,
	}
	if err := s.DB.CreateGuest(ctx, guest); err != nil {
		return nil, fmt.Errorf("failed to create guest: %w", err)
	}
	return guest, nil
}

func (s *GuestService) GetGuest(ctx context.Context, guestUUID string) (*models.Guest, error) {
	guest, err := s.DB.GetGuestByUUID(ctx, guestUUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGuestNotFound
		}
		return nil, fmt.Errorf("failed to fetch guest %s: %w", guestUUID, err)
	}
	return guest, nil
}

// LookupTicket serves the public scanner page: the key matches either the
// guest UUID or their id number. With scan set, entered_at is stamped after
// the row is captured, so the caller still sees the previous value and can
// warn when a ticket is scanned twice.
func (s *GuestService) LookupTicket(ctx context.Context, key string, scan bool) (*models.Guest, error) {
	guest, err := s.DB.GetGuestForTicket(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGuestNotFound
		}
		return nil, fmt.Errorf("failed to look up ticket: %w", err)
	}

	if scan {
		if guest.EnteredAt != nil {
			s.Logger.LogScan(guest.UUID, "re-scan of an already entered guest")
		}
		if err := s.DB.MarkEntered(ctx, guest.ID, time.Now()); err != nil {
			return nil, fmt.Errorf("failed to mark guest %s as entered: %w", guest.UUID, err)
		}
		s.Logger.LogScan(guest.UUID, fmt.Sprintf("guest %q checked in", guest.FullName))
	}

	return guest, nil
}

func (s *GuestService) ListForUser(ctx context.Context, userID int64) ([]models.Guest, error) {
	guests, err := s.DB.ListGuestsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list guests for user %d: %w", userID, err)
	}
	return guests, nil
}

func (s *GuestService) ListForAdmin(ctx context.Context, filter models.GuestFilter) ([]models.Guest, int, error) {
	guests, err := s.DB.ListGuests(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list guests: %w", err)
	}

	totalCount, err := s.DB.CountGuests(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count guests: %w", err)
	}

	return guests, totalCount, nil
}

// UpdateGuestInput carries the patchable guest fields; nil means unchanged.
type UpdateGuestInput struct {
	FullName *string
	IDNumber *string
	Weapon   *bool
}

func (in UpdateGuestInput) Empty() bool {
	return in.FullName == nil && in.IDNumber == nil && in.Weapon == nil
}

// UpdateGuest applies the patch to a guest row the caller already fetched
// (and authorized against), so the row is read once per request.
func (s *GuestService) UpdateGuest(ctx context.Context, guest *models.Guest, input UpdateGuestInput) (*models.Guest, error) {
	if input.FullName != nil {
		guest.FullName = *input.FullName
	}
	if input.IDNumber != nil {
		guest.IDNumber = *input.IDNumber
	}
	if input.Weapon != nil {
		guest.Weapon = *input.Weapon
	}

	if err := s.DB.UpdateGuest(ctx, guest); err != nil {
		return nil, fmt.Errorf("failed to update guest %s: %w", guest.UUID, err)
	}
	return guest, nil
}

func (s *GuestService) DeleteGuest(ctx context.Context, guestUUID string) error {
	if err := s.DB.DeleteGuestByUUID(ctx, guestUUID); err != nil {
		return fmt.Errorf("failed to delete guest %s: %w", guestUUID, err)
	}
	return nil
}

// ExportEvent renders all guests of an event into an xlsx payload.
func (s *GuestService) ExportEvent(ctx context.Context, eventID int64) ([]byte, string, error) {
	event, err := s.Events.GetEventByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrEventNotFound
		}
		return nil, "", fmt.Errorf("failed to resolve event %d: %w", eventID, err)
	}

	guests, err := s.DB.ListGuestsByEvent(ctx, eventID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list guests for event %d: %w", eventID, err)
	}

	payload, err := excel.BuildGuestSheet(event.Name, guests)
	if err != nil {
		return nil, "", err
	}
	return payload, event.Name, nil
}

// TicketQR renders the guest's entry ticket as a QR PNG pointing at the
// frontend ticket page.
func (s *GuestService) TicketQR(ctx context.Context, guestUUID string) ([]byte, error) {
	guest, err := s.GetGuest(ctx, guestUUID)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/ticket/%s", s.TicketBaseURL, guest.UUID)
	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ticket QR: %w", err)
	}
	return png, nil
}
