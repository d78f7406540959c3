package handler

import (
	"net/http"

	"blackyoga/internal/points/service"
	httputil "blackyoga/pkg/http"
	"blackyoga/pkg/logger"
	"blackyoga/pkg/middleware"
	"blackyoga/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type PointsHandler struct {
	service service.PointsService
	log     *logger.Logger
}

func NewPointsHandler(service service.PointsService, log *logger.Logger) *PointsHandler {
	return &PointsHandler{
		service: service,
		log:     log,
	}
}

func (h *PointsHandler) GetBalance(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	balance, err := h.service.GetBalance(r.Context(), middleware.SessionFrom(r.Context()))
	if err != nil {
		h.writeError(w, "GetBalance", err)
		return
	}

	if err := httputil.WriteSuccess(w, balance); err != nil {
		h.log.Error("failed to write success response", "handler", "GetBalance", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PointsHandler) GetHistory(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetHistory", err)
		return
	}

	entries, total, err := h.service.GetHistory(r.Context(), middleware.SessionFrom(r.Context()), limit, offset)
	if err != nil {
		h.writeError(w, "GetHistory", err)
		return
	}

	if err := httputil.WritePaginated(w, entries, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetHistory", "operation", "WritePaginated", "error", err)
	}
}

func (h *PointsHandler) Grant(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var grant model.PointsGrant
	if err := httputil.DecodeJSON(r, &grant); err != nil {
		h.writeError(w, "Grant", err)
		return
	}

	entry, err := h.service.Grant(r.Context(), middleware.SessionFrom(r.Context()), ps.ByName("id"), &grant)
	if err != nil {
		h.writeError(w, "Grant", err)
		return
	}

	if err := httputil.WriteCreated(w, entry); err != nil {
		h.log.Error("failed to write created response", "handler", "Grant", "operation", "WriteCreated", "error", err)
	}
}

func (h *PointsHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *PointsHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/points", h.GetBalance)
	router.GET("/api/v1/points/history", h.GetHistory)
	router.POST("/api/v1/users/id/:id/points", h.Grant)
}
