package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hlafethi/coworkmy-booking/internal/app"
	"github.com/hlafethi/coworkmy-booking/internal/domain"
)

type stubCatalog struct {
	space     domain.Space
	spaces    []domain.Space
	createErr error
	listErr   error
	getErr    error
	updateErr error

	created   app.CreateSpaceInput
	updatedID string
	updated   app.UpdateSpaceInput
}

func (s *stubCatalog) CreateSpace(_ context.Context, in app.CreateSpaceInput) (domain.Space, error) {
	s.created = in
	return s.space, s.createErr
}

func (s *stubCatalog) ListSpaces(_ context.Context) ([]domain.Space, error) {
	return s.spaces, s.listErr
}

func (s *stubCatalog) GetSpace(_ context.Context, _ string) (domain.Space, error) {
	return s.space, s.getErr
}

func (s *stubCatalog) UpdateSpace(_ context.Context, id string, in app.UpdateSpaceInput) (domain.Space, error) {
	s.updatedID = id
	s.updated = in
	return s.space, s.updateErr
}

func adminTestSpace() domain.Space {
	return domain.Space{
		ID:           "space-1",
		Name:         "Meeting room A",
		Capacity:     6,
		Currency:     "EUR",
		Active:       true,
		CancelNotice: 24 * time.Hour,
		Tiers: []domain.PricingTier{
			{Kind: domain.TierHourly, Label: "Hourly", Price: 2500},
		},
	}
}

func TestHandleAdminSpaces(t *testing.T) {
	t.Parallel()

	validBody := `{"name":"Meeting room A","capacity":6,"currency":"EUR","cancel_notice_hours":24,"tiers":[{"kind":"hourly","label":"Hourly","price":2500}]}`

	t.Run("create space", func(t *testing.T) {
		t.Parallel()
		svc := &stubCatalog{space: adminTestSpace()}
		req := httptest.NewRequest(http.MethodPost, "/admin/spaces", bytes.NewBufferString(validBody))
		rec := httptest.NewRecorder()

		HandleAdminSpaces(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
		if svc.created.CancelNotice != 24*time.Hour {
			t.Fatalf("expected notice converted to a duration, got %v", svc.created.CancelNotice)
		}
		if len(svc.created.Tiers) != 1 || svc.created.Tiers[0].Kind != domain.TierHourly {
			t.Fatalf("unexpected tiers: %+v", svc.created.Tiers)
		}
		if !strings.Contains(rec.Body.String(), `"cancel_notice_hours":24`) {
			t.Fatalf("expected notice in response, got %q", rec.Body.String())
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		t.Parallel()
		svc := &stubCatalog{}
		req := httptest.NewRequest(http.MethodPost, "/admin/spaces", bytes.NewBufferString(`{"name":`))
		rec := httptest.NewRecorder()

		HandleAdminSpaces(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("validation failure", func(t *testing.T) {
		t.Parallel()
		svc := &stubCatalog{createErr: validationErr(t)}
		req := httptest.NewRequest(http.MethodPost, "/admin/spaces", bytes.NewBufferString(validBody))
		rec := httptest.NewRecorder()

		HandleAdminSpaces(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), codeValidationError) {
			t.Fatalf("expected %s, got %q", codeValidationError, rec.Body.String())
		}
	})

	t.Run("list spaces", func(t *testing.T) {
		t.Parallel()
		svc := &stubCatalog{spaces: []domain.Space{adminTestSpace()}}
		req := httptest.NewRequest(http.MethodGet, "/admin/spaces", nil)
		rec := httptest.NewRecorder()

		HandleAdminSpaces(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"id":"space-1"`) {
			t.Fatalf("expected the space listed, got %q", rec.Body.String())
		}
	})

	t.Run("list failure", func(t *testing.T) {
		t.Parallel()
		svc := &stubCatalog{listErr: errors.New("boom")}
		req := httptest.NewRequest(http.MethodGet, "/admin/spaces", nil)
		rec := httptest.NewRecorder()

		HandleAdminSpaces(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		t.Parallel()
		svc := &stubCatalog{}
		req := httptest.NewRequest(http.MethodDelete, "/admin/spaces", nil)
		rec := httptest.NewRecorder()

		HandleAdminSpaces(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405, got %d", rec.Code)
		}
	})
}

// validationErr obtains one of the catalog's validation errors by running an
// invalid input through the real service.
func validationErr(t *testing.T) error {
	t.Helper()
	svc := app.NewCatalogService(nil, nil, nil)
	_, err := svc.CreateSpace(context.Background(), app.CreateSpaceInput{})
	if err == nil || !app.IsCatalogValidationError(err) {
		t.Fatalf("expected a catalog validation error, got %v", err)
	}
	return err
}

func TestHandleSpaceByID(t *testing.T) {
	t.Parallel()

	t.Run("get space", func(t *testing.T) {
		t.Parallel()
		svc := &stubCatalog{space: adminTestSpace()}
		req := httptest.NewRequest(http.MethodGet, "/admin/spaces/space-1", nil)
		rec := httptest.NewRecorder()

		HandleSpaceByID(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"name":"Meeting room A"`) {
			t.Fatalf("expected the space, got %q", rec.Body.String())
		}
	})

	t.Run("unknown space", func(t *testing.T) {
		t.Parallel()
		svc := &stubCatalog{getErr: domain.ErrSpaceNotFound}
		req := httptest.NewRequest(http.MethodGet, "/admin/spaces/missing", nil)
		rec := httptest.NewRecorder()

		HandleSpaceByID(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("missing id segment", func(t *testing.T) {
		t.Parallel()
		svc := &stubCatalog{space: adminTestSpace()}
		req := httptest.NewRequest(http.MethodGet, "/admin/spaces/", nil)
		rec := httptest.NewRecorder()

		HandleSpaceByID(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("update space", func(t *testing.T) {
		t.Parallel()
		svc := &stubCatalog{space: adminTestSpace()}
		body := `{"name":"Meeting room A","capacity":8,"active":false,"cancel_notice_hours":48}`
		req := httptest.NewRequest(http.MethodPut, "/admin/spaces/space-1", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()

		HandleSpaceByID(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if svc.updatedID != "space-1" {
			t.Fatalf("expected the path id forwarded, got %q", svc.updatedID)
		}
		if svc.updated.Capacity != 8 || svc.updated.Active || svc.updated.CancelNotice != 48*time.Hour {
			t.Fatalf("unexpected update input: %+v", svc.updated)
		}
	})

	t.Run("update invalid json", func(t *testing.T) {
		t.Parallel()
		svc := &stubCatalog{space: adminTestSpace()}
		req := httptest.NewRequest(http.MethodPut, "/admin/spaces/space-1", bytes.NewBufferString(`{"name":`))
		rec := httptest.NewRecorder()

		HandleSpaceByID(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("update validation failure", func(t *testing.T) {
		t.Parallel()
		svc := &stubCatalog{updateErr: validationErr(t)}
		body := `{"name":"","capacity":0,"active":true,"cancel_notice_hours":0}`
		req := httptest.NewRequest(http.MethodPut, "/admin/spaces/space-1", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()

		HandleSpaceByID(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), codeValidationError) {
			t.Fatalf("expected %s, got %q", codeValidationError, rec.Body.String())
		}
	})

	t.Run("update unknown space", func(t *testing.T) {
		t.Parallel()
		svc := &stubCatalog{updateErr: domain.ErrSpaceNotFound}
		body := `{"name":"Meeting room A","capacity":6,"active":true,"cancel_notice_hours":24}`
		req := httptest.NewRequest(http.MethodPut, "/admin/spaces/missing", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()

		HandleSpaceByID(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		t.Parallel()
		svc := &stubCatalog{space: adminTestSpace()}
		req := httptest.NewRequest(http.MethodDelete, "/admin/spaces/space-1", nil)
		rec := httptest.NewRecorder()

		HandleSpaceByID(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405, got %d", rec.Code)
		}
	})
}
