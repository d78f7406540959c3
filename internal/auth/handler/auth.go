package handler

import (
	"net/http"

	"blackyoga/internal/auth/service"
	httputil "blackyoga/pkg/http"
	"blackyoga/pkg/logger"
	"blackyoga/pkg/model"

	"github.com/julienschmidt/httprouter"
)

// LoginPath is served without a session token.
const LoginPath = "/api/v1/auth/line"

type AuthHandler struct {
	service service.AuthService
	log     *logger.Logger
}

func NewAuthHandler(service service.AuthService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		log:     log,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var profile model.LineProfile
	if err := httputil.DecodeJSON(r, &profile); err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.service.Login(r.Context(), &profile)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "Login", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AuthHandler) writeError(w http.ResponseWriter, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", "Login", "operation", "WriteError", "error", writeErr)
	}
}

func (h *AuthHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST(LoginPath, h.Login)
}
