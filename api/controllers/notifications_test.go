package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/craftkart/craftkart-backend/api/middleware"
	notificationsvc "github.com/craftkart/craftkart-backend/internal/notifications"
	"github.com/craftkart/craftkart-backend/pkg/db/models"
	"github.com/craftkart/craftkart-backend/pkg/enums"
)

type stubNotificationService struct {
	result *notificationsvc.ListResult
	err    error

	lastList     notificationsvc.ListParams
	markedID     uuid.UUID
	markAllCount int64
}

func (s *stubNotificationService) List(ctx context.Context, params notificationsvc.ListParams) (*notificationsvc.ListResult, error) {
	s.lastList = params
	return s.result, s.err
}

func (s *stubNotificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	s.markedID = notificationID
	return s.err
}

func (s *stubNotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.markAllCount, s.err
}

func (s *stubNotificationService) OrderPlaced(ctx context.Context, order *models.Order)   {}
func (s *stubNotificationService) OrderCanceled(ctx context.Context, order *models.Order) {}
func (s *stubNotificationService) OrderStatusUpdated(ctx context.Context, order *models.Order, previous enums.OrderStatus) {
}

func TestListNotificationsForwardsParams(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	svc := &stubNotificationService{result: &notificationsvc.ListResult{
		Items:  []models.Notification{{ID: uuid.New(), UserID: userID}},
		Cursor: "next-page",
	}}
	handler := ListNotifications(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications?limit=10&unread_only=true&cursor=abc", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastList.UserID != userID {
		t.Fatalf("unexpected user id: %s", svc.lastList.UserID)
	}
	if svc.lastList.Limit != 10 || !svc.lastList.UnreadOnly || svc.lastList.Cursor != "abc" {
		t.Fatalf("params not forwarded: %+v", svc.lastList)
	}

	var envelope struct {
		Data notificationsvc.ListResult `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Cursor != "next-page" {
		t.Fatalf("unexpected cursor: %q", envelope.Data.Cursor)
	}
}

func TestListNotificationsRejectsBadLimit(t *testing.T) {
	t.Parallel()

	handler := ListNotifications(&stubNotificationService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications?limit=9000", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestMarkNotificationReadParsesPath(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	notificationID := uuid.New()
	svc := &stubNotificationService{}

	router := chi.NewRouter()
	router.Post("/notifications/{notificationID}/read", MarkNotificationRead(svc, nil))

	req := httptest.NewRequest(http.MethodPost, "/notifications/"+notificationID.String()+"/read", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.markedID != notificationID {
		t.Fatalf("unexpected notification id: %s", svc.markedID)
	}
}

func TestMarkNotificationReadRejectsBadID(t *testing.T) {
	t.Parallel()

	router := chi.NewRouter()
	router.Post("/notifications/{notificationID}/read", MarkNotificationRead(&stubNotificationService{}, nil))

	req := httptest.NewRequest(http.MethodPost, "/notifications/not-a-uuid/read", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestMarkAllNotificationsRead(t *testing.T) {
	t.Parallel()

	svc := &stubNotificationService{markAllCount: 4}
	handler := MarkAllNotificationsRead(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/read-all", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data map[string]int64 `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data["updated"] != 4 {
		t.Fatalf("expected 4 updated, got %d", envelope.Data["updated"])
	}
}
