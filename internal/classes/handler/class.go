package handler

import (
	"net/http"

	"blackyoga/internal/classes/service"
	httputil "blackyoga/pkg/http"
	"blackyoga/pkg/logger"
	"blackyoga/pkg/middleware"
	"blackyoga/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ClassHandler struct {
	service service.ClassService
	log     *logger.Logger
}

func NewClassHandler(service service.ClassService, log *logger.Logger) *ClassHandler {
	return &ClassHandler{
		service: service,
		log:     log,
	}
}

func (h *ClassHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input model.ClassInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	class, err := h.service.Create(r.Context(), middleware.SessionFrom(r.Context()), &input)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, class); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *ClassHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	class, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, class); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ClassHandler) GetUpcoming(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetUpcoming", err)
		return
	}

	classes, total, err := h.service.GetUpcoming(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, "GetUpcoming", err)
		return
	}

	if err := httputil.WritePaginated(w, classes, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetUpcoming", "operation", "WritePaginated", "error", err)
	}
}

func (h *ClassHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var update model.ClassUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	class, err := h.service.Update(r.Context(), middleware.SessionFrom(r.Context()), ps.ByName("id"), &update)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, class); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ClassHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), middleware.SessionFrom(r.Context()), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ClassHandler) GetRoster(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	roster, err := h.service.GetRoster(r.Context(), middleware.SessionFrom(r.Context()), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetRoster", err)
		return
	}

	if err := httputil.WriteSuccess(w, roster); err != nil {
		h.log.Error("failed to write success response", "handler", "GetRoster", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ClassHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *ClassHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/classes", h.GetUpcoming)
	router.POST("/api/v1/classes", h.Create)
	router.GET("/api/v1/classes/id/:id", h.GetByID)
	router.PATCH("/api/v1/classes/id/:id", h.Update)
	router.DELETE("/api/v1/classes/id/:id", h.Delete)
	router.GET("/api/v1/classes/id/:id/bookings", h.GetRoster)
}
