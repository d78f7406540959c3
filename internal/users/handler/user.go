package handler

import (
	"net/http"

	"blackyoga/internal/users/service"
	httputil "blackyoga/pkg/http"
	"blackyoga/pkg/logger"
	"blackyoga/pkg/middleware"
	"blackyoga/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type UserHandler struct {
	service service.UserService
	log     *logger.Logger
}

func NewUserHandler(service service.UserService, log *logger.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		log:     log,
	}
}

func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	user, err := h.service.GetMe(r.Context(), middleware.SessionFrom(r.Context()))
	if err != nil {
		h.writeError(w, "GetMe", err)
		return
	}

	if err := httputil.WriteSuccess(w, user); err != nil {
		h.log.Error("failed to write success response", "handler", "GetMe", "operation", "WriteSuccess", "error", err)
	}
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var update model.ProfileUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		h.writeError(w, "UpdateMe", err)
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), middleware.SessionFrom(r.Context()), &update)
	if err != nil {
		h.writeError(w, "UpdateMe", err)
		return
	}

	if err := httputil.WriteSuccess(w, user); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateMe", "operation", "WriteSuccess", "error", err)
	}
}

func (h *UserHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	users, total, err := h.service.GetAll(r.Context(), middleware.SessionFrom(r.Context()), limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, users, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *UserHandler) SetMembership(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var update model.MembershipUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		h.writeError(w, "SetMembership", err)
		return
	}

	user, err := h.service.SetMembership(r.Context(), middleware.SessionFrom(r.Context()), ps.ByName("id"), &update)
	if err != nil {
		h.writeError(w, "SetMembership", err)
		return
	}

	if err := httputil.WriteSuccess(w, user); err != nil {
		h.log.Error("failed to write success response", "handler", "SetMembership", "operation", "WriteSuccess", "error", err)
	}
}

func (h *UserHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *UserHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/me", h.GetMe)
	router.PATCH("/api/v1/me", h.UpdateMe)
	router.GET("/api/v1/users", h.GetAll)
	router.PUT("/api/v1/users/id/:id/membership", h.SetMembership)
}
