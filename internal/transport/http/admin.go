package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/hlafethi/coworkmy-booking/internal/app"
	"github.com/hlafethi/coworkmy-booking/internal/domain"
)

// CatalogAdmin manages the space catalog the engine books against.
type CatalogAdmin interface {
	CreateSpace(ctx context.Context, in app.CreateSpaceInput) (domain.Space, error)
	ListSpaces(ctx context.Context) ([]domain.Space, error)
}

// HandleAdminSpaces serves POST and GET /admin/spaces.
func HandleAdminSpaces(svc CatalogAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			handleCreateSpace(w, r, svc)
		case http.MethodGet:
			handleListSpaces(w, r, svc)
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}

func handleCreateSpace(w http.ResponseWriter, r *http.Request, svc CatalogAdmin) {
	var req createSpaceRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}

	tiers := make([]domain.PricingTier, 0, len(req.Tiers))
	for _, t := range req.Tiers {
		tiers = append(tiers, domain.PricingTier{
			Kind:  domain.TierKind(t.Kind),
			Label: t.Label,
			Price: t.Price,
		})
	}

	space, err := svc.CreateSpace(r.Context(), app.CreateSpaceInput{
		Name:         req.Name,
		Capacity:     req.Capacity,
		Currency:     req.Currency,
		CancelNotice: time.Duration(req.CancelNoticeHours) * time.Hour,
		Tiers:        tiers,
	})
	if err != nil {
		if app.IsCatalogValidationError(err) {
			writeError(w, http.StatusUnprocessableEntity, codeValidationError, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, newSpaceResponse(space))
}

func handleListSpaces(w http.ResponseWriter, r *http.Request, svc CatalogAdmin) {
	spaces, err := svc.ListSpaces(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
		return
	}

	resp := make([]spaceResponse, 0, len(spaces))
	for _, space := range spaces {
		resp = append(resp, newSpaceResponse(space))
	}
	writeJSON(w, http.StatusOK, resp)
}

// SpaceAdmin resolves and updates a single catalog space.
type SpaceAdmin interface {
	GetSpace(ctx context.Context, id string) (domain.Space, error)
	UpdateSpace(ctx context.Context, id string, in app.UpdateSpaceInput) (domain.Space, error)
}

// HandleSpaceByID serves GET and PUT /admin/spaces/{id}.
func HandleSpaceByID(svc SpaceAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := pathTail(r.URL.Path, "admin", "spaces")
		if id == "" {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		switch r.Method {
		case http.MethodGet:
			handleGetSpace(w, r, svc, id)
		case http.MethodPut:
			handleUpdateSpace(w, r, svc, id)
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}

func handleGetSpace(w http.ResponseWriter, r *http.Request, svc SpaceAdmin, id string) {
	space, err := svc.GetSpace(r.Context(), id)
	if err != nil {
		writeSpaceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSpaceResponse(space))
}

func handleUpdateSpace(w http.ResponseWriter, r *http.Request, svc SpaceAdmin, id string) {
	var req updateSpaceRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}

	space, err := svc.UpdateSpace(r.Context(), id, app.UpdateSpaceInput{
		Name:         req.Name,
		Capacity:     req.Capacity,
		Active:       req.Active,
		CancelNotice: time.Duration(req.CancelNoticeHours) * time.Hour,
	})
	if err != nil {
		if app.IsCatalogValidationError(err) {
			writeError(w, http.StatusUnprocessableEntity, codeValidationError, err.Error())
			return
		}
		writeSpaceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSpaceResponse(space))
}

func writeSpaceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSpaceNotFound):
		writeError(w, http.StatusNotFound, codeSpaceNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusUnprocessableEntity, codeInvalidID, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

func pathTail(path string, prefix ...string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != len(prefix)+1 {
		return ""
	}
	for i, p := range prefix {
		if parts[i] != p {
			return ""
		}
	}
	return parts[len(prefix)]
}

type createSpaceRequest struct {
	Name              string            `json:"name"`
	Capacity          int               `json:"capacity"`
	Currency          string            `json:"currency"`
	CancelNoticeHours int               `json:"cancel_notice_hours"`
	Tiers             []tierRequestItem `json:"tiers"`
}

type updateSpaceRequest struct {
	Name              string `json:"name"`
	Capacity          int    `json:"capacity"`
	Active            bool   `json:"active"`
	CancelNoticeHours int    `json:"cancel_notice_hours"`
}

type tierRequestItem struct {
	Kind  string `json:"kind"`
	Label string `json:"label"`
	Price int64  `json:"price"`
}

type spaceResponse struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	Capacity          int                `json:"capacity"`
	Currency          string             `json:"currency"`
	Active            bool               `json:"active"`
	CancelNoticeHours int                `json:"cancel_notice_hours"`
	Tiers             []tierResponseItem `json:"tiers"`
}

type tierResponseItem struct {
	Kind  string `json:"kind"`
	Label string `json:"label"`
	Price int64  `json:"price"`
}

func newSpaceResponse(space domain.Space) spaceResponse {
	tiers := make([]tierResponseItem, 0, len(space.Tiers))
	for _, t := range space.Tiers {
		tiers = append(tiers, tierResponseItem{Kind: string(t.Kind), Label: t.Label, Price: t.Price})
	}
	return spaceResponse{
		ID:                space.ID,
		Name:              space.Name,
		Capacity:          space.Capacity,
		Currency:          space.Currency,
		Active:            space.Active,
		CancelNoticeHours: int(space.CancelNotice / time.Hour),
		Tiers:             tiers,
	}
}
