package standardcost

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/OG0914/cost-management-sub000/internal/platform/httpx"
	"github.com/OG0914/cost-management-sub000/internal/pricing"
	"github.com/OG0914/cost-management-sub000/internal/shared"
)

// Handler exposes the standard-cost ledger JSON API.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) ledgerKey(w http.ResponseWriter, r *http.Request) (uuid.UUID, pricing.Channel, bool) {
	configID, err := uuid.Parse(chi.URLParam(r, "configID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid configuration id")
		return uuid.Nil, "", false
	}
	channel := pricing.Channel(strings.ToUpper(chi.URLParam(r, "channel")))
	if !channel.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "channel must be DOMESTIC or EXPORT")
		return uuid.Nil, "", false
	}
	return configID, channel, true
}

// Promote appends a ledger version from an approved quotation.
func (h *Handler) Promote(w http.ResponseWriter, r *http.Request) {
	quotationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid quotation id")
		return
	}
	v, err := h.service.Promote(r.Context(), quotationID, shared.ActorFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, v)
}

// Current returns the live version for one (configuration, channel) pair.
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	configID, channel, ok := h.ledgerKey(w, r)
	if !ok {
		return
	}
	v, err := h.service.CurrentFor(r.Context(), configID, channel)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

// History lists all versions for a pair, newest first.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	configID, channel, ok := h.ledgerKey(w, r)
	if !ok {
		return
	}
	versions, err := h.service.History(r.Context(), configID, channel)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"versions": versions, "total": len(versions)})
}

// Restore re-activates a historical version as a fresh copy.
func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	configID, channel, ok := h.ledgerKey(w, r)
	if !ok {
		return
	}
	version, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil || version < 1 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid version number")
		return
	}
	v, err := h.service.Restore(r.Context(), configID, channel, version, shared.ActorFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, v)
}

// Delete removes a configuration's entire ledger.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	configID, err := uuid.Parse(chi.URLParam(r, "configID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid configuration id")
		return
	}
	if err := h.service.DeleteAll(r.Context(), configID, shared.ActorFromContext(r.Context())); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
