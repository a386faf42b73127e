package guest_api_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"guestlist/internal/auth"
	"guestlist/internal/guests"
	"guestlist/internal/guests/guest_api"
	"guestlist/internal/logger"
	"guestlist/internal/models"
)

// MockGuestDBLayer is a mock implementation of the GuestDBLayer interface
type MockGuestDBLayer struct {
	mock.Mock
}

func (m *MockGuestDBLayer) CreateGuest(ctx context.Context, guest *models.Guest) error {
	args := m.Called(ctx, guest)
	return args.Error(0)
}

func (m *MockGuestDBLayer) GetGuestByUUID(ctx context.Context, uuid string) (*models.Guest, error) {
	args := m.Called(ctx, uuid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Guest), args.Error(1)
}

func (m *MockGuestDBLayer) GetGuestForTicket(ctx context.Context, key string) (*models.Guest, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Guest), args.Error(1)
}

func (m *MockGuestDBLayer) GuestExistsByIDNumber(ctx context.Context, idNumber string) (bool, error) {
	args := m.Called(ctx, idNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MockGuestDBLayer) CountGuestsByUser(ctx context.Context, userID int64) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockGuestDBLayer) ListGuestsByUser(ctx context.Context, userID int64) ([]models.Guest, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Guest), args.Error(1)
}

func (m *MockGuestDBLayer) ListGuests(ctx context.Context, filter models.GuestFilter) ([]models.Guest, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Guest), args.Error(1)
}

func (m *MockGuestDBLayer) CountGuests(ctx context.Context, filter models.GuestFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *MockGuestDBLayer) ListGuestsByEvent(ctx context.Context, eventID int64) ([]models.Guest, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Guest), args.Error(1)
}

func (m *MockGuestDBLayer) UpdateGuest(ctx context.Context, guest *models.Guest) error {
	args := m.Called(ctx, guest)
	return args.Error(0)
}

func (m *MockGuestDBLayer) DeleteGuestByUUID(ctx context.Context, uuid string) error {
	args := m.Called(ctx, uuid)
	return args.Error(0)
}

func (m *MockGuestDBLayer) MarkEntered(ctx context.Context, id int64, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// MockUserResolver is a mock implementation of the UserResolver interface
type MockUserResolver struct {
	mock.Mock
}

func (m *MockUserResolver) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockEventResolver is a mock implementation of the EventResolver interface
type MockEventResolver struct {
	mock.Mock
}

func (m *MockEventResolver) GetEventByID(ctx context.Context, id int64) (*models.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func identityMiddleware(ident models.Identity) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), ident)))
		})
	}
}

func setupHandler() (*guest_api.Handler, *MockGuestDBLayer, *MockUserResolver, *MockEventResolver) {
	mockDB := new(MockGuestDBLayer)
	mockUsers := new(MockUserResolver)
	mockEvents := new(MockEventResolver)
	log := logger.NewLogger()
	svc := guests.NewGuestService(mockDB, mockUsers, mockEvents, log, "https://guestlist.example")
	return &guest_api.Handler{GuestService: svc, Logger: log}, mockDB, mockUsers, mockEvents
}

func testRouter(h *guest_api.Handler, ident models.Identity) http.Handler {
	r := chi.NewRouter()
	r.Get("/guests/{id}", h.GetGuestTicket)
	r.Get("/guests/{uuid}/qr", h.GetGuestQR)
	r.Group(func(r chi.Router) {
		r.Use(identityMiddleware(ident))
		r.Get("/guests/excel-export", h.ExportGuestsExcel)
		r.Post("/guests", h.CreateGuest)
		r.Get("/guests", h.GetGuests)
		r.Patch("/guests/{uuid}", h.UpdateGuest)
		r.Delete("/guests/{uuid}", h.DeleteGuest)
	})
	return r
}

var inviterIdentity = models.Identity{Kind: models.IdentityUser, ID: 7, EventID: 2}

func TestCreateGuestAsInviter(t *testing.T) {
	h, mockDB, mockUsers, mockEvents := setupHandler()
	router := testRouter(h, inviterIdentity)

	user := &models.User{ID: 7, EventID: 2, FullName: "Dana Levi"}
	event := &models.Event{ID: 2, Name: "Gala", InvitationCount: 3}
	mockUsers.On("GetUserByID", mock.Anything, int64(7)).Return(user, nil)
	mockEvents.On("GetEventByID", mock.Anything, int64(2)).Return(event, nil)
	mockDB.On("GuestExistsByIDNumber", mock.Anything, "123456789").Return(false, nil)
	mockDB.On("CountGuestsByUser", mock.Anything, int64(7)).Return(0, nil)
	// The inviter's own id wins even if the body names someone else
	mockDB.On("CreateGuest", mock.Anything, mock.MatchedBy(func(g *models.Guest) bool {
		return g.UserID == 7
	})).Return(nil)

	body, _ := json.Marshal(map[string]interface{}{
		"full_name": "Guest One",
		"id_number": "123456789",
		"user_id":   99,
	})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/guests", bytes.NewReader(body))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Guest models.Guest `json:"guest"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(7), resp.Guest.UserID)
	assert.NotEmpty(t, resp.Guest.UUID)
	mockDB.AssertExpectations(t)
}

func TestCreateGuestMissingFields(t *testing.T) {
	h, _, _, _ := setupHandler()
	router := testRouter(h, inviterIdentity)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/guests", bytes.NewReader([]byte(`{"full_name":"Guest"}`)))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateGuestQuotaExceeded(t *testing.T) {
	h, mockDB, mockUsers, mockEvents := setupHandler()
	router := testRouter(h, inviterIdentity)

	user := &models.User{ID: 7, EventID: 2}
	event := &models.Event{ID: 2, InvitationCount: 3}
	mockUsers.On("GetUserByID", mock.Anything, int64(7)).Return(user, nil)
	mockEvents.On("GetEventByID", mock.Anything, int64(2)).Return(event, nil)
	mockDB.On("GuestExistsByIDNumber", mock.Anything, "123456789").Return(false, nil)
	mockDB.On("CountGuestsByUser", mock.Anything, int64(7)).Return(3, nil)

	body := []byte(`{"full_name":"Guest One","id_number":"123456789"}`)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/guests", bytes.NewReader(body))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateGuestDuplicateIDNumber(t *testing.T) {
	h, mockDB, mockUsers, mockEvents := setupHandler()
	router := testRouter(h, inviterIdentity)

	user := &models.User{ID: 7, EventID: 2}
	event := &models.Event{ID: 2, InvitationCount: 3}
	mockUsers.On("GetUserByID", mock.Anything, int64(7)).Return(user, nil)
	mockEvents.On("GetEventByID", mock.Anything, int64(2)).Return(event, nil)
	mockDB.On("GuestExistsByIDNumber", mock.Anything, "123456789").Return(true, nil)

	body := []byte(`{"full_name":"Guest One","id_number":"123456789"}`)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/guests", bytes.NewReader(body))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateGuestAsAdminRequiresUserID(t *testing.T) {
	h, _, _, _ := setupHandler()
	admin := models.Identity{Kind: models.IdentityAdmin, ID: 5, Role: models.EventAdmin, EventID: 2}
	router := testRouter(h, admin)

	body := []byte(`{"full_name":"Guest One","id_number":"123456789"}`)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/guests", bytes.NewReader(body))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetGuestsAsInviter(t *testing.T) {
	h, mockDB, _, _ := setupHandler()
	router := testRouter(h, inviterIdentity)

	guestList := []models.Guest{{ID: 1, UserID: 7, FullName: "Guest One"}}
	mockDB.On("ListGuestsByUser", mock.Anything, int64(7)).Return(guestList, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/guests", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Guests []models.Guest `json:"guests"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Guests, 1)
	mockDB.AssertExpectations(t)
}

func TestGetGuestsEventAdminPinnedToOwnEvent(t *testing.T) {
	h, mockDB, _, _ := setupHandler()
	admin := models.Identity{Kind: models.IdentityAdmin, ID: 5, Role: models.EventAdmin, EventID: 2}
	router := testRouter(h, admin)

	// The query string asks for event 99 but the filter stays on event 2
	expected := models.GuestFilter{EventID: 2, Offset: 0, Limit: 25}
	mockDB.On("ListGuests", mock.Anything, expected).Return([]models.Guest{}, nil)
	mockDB.On("CountGuests", mock.Anything, expected).Return(0, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/guests?event_id=99", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	mockDB.AssertExpectations(t)
}

func TestGetGuestsPaginationEnvelope(t *testing.T) {
	h, mockDB, _, _ := setupHandler()
	superAdmin := models.Identity{Kind: models.IdentityAdmin, ID: models.SuperAdminID, Role: models.SuperAdmin}
	router := testRouter(h, superAdmin)

	expected := models.GuestFilter{EventID: 4, Offset: 10, Limit: 10}
	mockDB.On("ListGuests", mock.Anything, expected).Return([]models.Guest{{ID: 11}}, nil)
	mockDB.On("CountGuests", mock.Anything, expected).Return(21, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/guests?event_id=4&page=2&limit=10", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Pagination struct {
			Page       int `json:"page"`
			PageCount  int `json:"pageCount"`
			TotalCount int `json:"totalCount"`
		} `json:"pagination"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Pagination.Page)
	assert.Equal(t, 3, resp.Pagination.PageCount)
	assert.Equal(t, 21, resp.Pagination.TotalCount)
	mockDB.AssertExpectations(t)
}

func TestGetGuestTicketScan(t *testing.T) {
	h, mockDB, _, _ := setupHandler()
	router := testRouter(h, models.Identity{})

	guest := &models.Guest{ID: 3, UUID: "ticket-uuid", FullName: "Guest One", EventName: "Gala"}
	mockDB.On("GetGuestForTicket", mock.Anything, "ticket-uuid").Return(guest, nil)
	mockDB.On("MarkEntered", mock.Anything, int64(3), mock.Anything).Return(nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/guests/ticket-uuid?scan=true", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Guest models.Guest `json:"guest"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Nil(t, resp.Guest.EnteredAt)
	assert.Equal(t, "Gala", resp.Guest.EventName)
	mockDB.AssertExpectations(t)
}

func TestGetGuestTicketNotFound(t *testing.T) {
	h, mockDB, _, _ := setupHandler()
	router := testRouter(h, models.Identity{})

	mockDB.On("GetGuestForTicket", mock.Anything, "missing").Return(nil, sql.ErrNoRows)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/guests/missing", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetGuestQR(t *testing.T) {
	h, mockDB, _, _ := setupHandler()
	router := testRouter(h, models.Identity{})

	guest := &models.Guest{ID: 3, UUID: "ticket-uuid"}
	mockDB.On("GetGuestByUUID", mock.Anything, "ticket-uuid").Return(guest, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/guests/ticket-uuid/qr", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, []byte("\x89PNG"), rec.Body.Bytes()[:4])
}

func TestUpdateGuestAsOwner(t *testing.T) {
	h, mockDB, _, _ := setupHandler()
	router := testRouter(h, inviterIdentity)

	guest := &models.Guest{ID: 3, UUID: "ticket-uuid", UserID: 7, EventID: 2, FullName: "Guest One", IDNumber: "123456789"}
	mockDB.On("GetGuestByUUID", mock.Anything, "ticket-uuid").Return(guest, nil)
	mockDB.On("UpdateGuest", mock.Anything, mock.MatchedBy(func(g *models.Guest) bool {
		return g.ID == 3 && g.FullName == "Renamed" && g.IDNumber == "123456789"
	})).Return(nil)

	body := []byte(`{"full_name":"Renamed"}`)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/guests/ticket-uuid", bytes.NewReader(body))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Guest models.Guest `json:"guest"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Renamed", resp.Guest.FullName)
	// One read covers both the ownership check and the update
	mockDB.AssertNumberOfCalls(t, "GetGuestByUUID", 1)
	mockDB.AssertExpectations(t)
}

func TestUpdateGuestForbiddenForOtherInviter(t *testing.T) {
	h, mockDB, _, _ := setupHandler()
	router := testRouter(h, inviterIdentity)

	// The guest belongs to inviter 9, the caller is inviter 7
	guest := &models.Guest{ID: 3, UUID: "ticket-uuid", UserID: 9, EventID: 2}
	mockDB.On("GetGuestByUUID", mock.Anything, "ticket-uuid").Return(guest, nil)

	body := []byte(`{"full_name":"Renamed"}`)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/guests/ticket-uuid", bytes.NewReader(body))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	mockDB.AssertNotCalled(t, "UpdateGuest")
}

func TestUpdateGuestNoData(t *testing.T) {
	h, _, _, _ := setupHandler()
	router := testRouter(h, inviterIdentity)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/guests/ticket-uuid", bytes.NewReader([]byte(`{}`)))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteGuestAsOwner(t *testing.T) {
	h, mockDB, _, _ := setupHandler()
	router := testRouter(h, inviterIdentity)

	guest := &models.Guest{ID: 3, UUID: "ticket-uuid", UserID: 7, EventID: 2}
	mockDB.On("GetGuestByUUID", mock.Anything, "ticket-uuid").Return(guest, nil)
	mockDB.On("DeleteGuestByUUID", mock.Anything, "ticket-uuid").Return(nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/guests/ticket-uuid", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	mockDB.AssertExpectations(t)
}

func TestDeleteGuestNotFound(t *testing.T) {
	h, mockDB, _, _ := setupHandler()
	router := testRouter(h, inviterIdentity)

	mockDB.On("GetGuestByUUID", mock.Anything, "missing").Return(nil, sql.ErrNoRows)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/guests/missing", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportGuestsForbiddenForOtherEvent(t *testing.T) {
	h, _, _, _ := setupHandler()
	admin := models.Identity{Kind: models.IdentityAdmin, ID: 5, Role: models.EventAdmin, EventID: 2}
	router := testRouter(h, admin)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/guests/excel-export?event_id=99", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestExportGuestsExcel(t *testing.T) {
	h, mockDB, _, mockEvents := setupHandler()
	admin := models.Identity{Kind: models.IdentityAdmin, ID: 5, Role: models.EventAdmin, EventID: 2}
	router := testRouter(h, admin)

	event := &models.Event{ID: 2, Name: "Gala", InvitationCount: 3}
	mockEvents.On("GetEventByID", mock.Anything, int64(2)).Return(event, nil)
	mockDB.On("ListGuestsByEvent", mock.Anything, int64(2)).Return([]models.Guest{{FullName: "Guest One", IDNumber: "111111111"}}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/guests/excel-export?event_id=2", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
	mockDB.AssertExpectations(t)
}
