package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/slotbook-api/internal/handler"
	"github.com/jwalitptl/slotbook-api/internal/model"
	"github.com/jwalitptl/slotbook-api/internal/service/auth"
	"github.com/jwalitptl/slotbook-api/pkg/httputil"
)

type Handler struct {
	service auth.AuthService
}

func NewHandler(service auth.AuthService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) LoginDoctor(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BindError(c, err)
		return
	}

	resp, err := h.service.LoginDoctor(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, resp)
}

func (h *Handler) LoginPatient(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BindError(c, err)
		return
	}

	resp, err := h.service.LoginPatient(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, resp)
}

func (h *Handler) Logout(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}

	if err := h.service.Logout(c.Request.Context(), principal); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, httputil.Response{Status: httputil.StatusSuccess, Message: "logged out"})
}
