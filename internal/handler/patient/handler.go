package patient

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/slotbook-api/internal/handler"
	"github.com/jwalitptl/slotbook-api/internal/model"
	"github.com/jwalitptl/slotbook-api/internal/service/patient"
	apperrors "github.com/jwalitptl/slotbook-api/pkg/errors"
	"github.com/jwalitptl/slotbook-api/pkg/httputil"
)

const avatarField = "avatar"

type Handler struct {
	service patient.PatientService
}

func NewHandler(service patient.PatientService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BindError(c, err)
		return
	}

	created, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, created)
}

func (h *Handler) GetProfile(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}

	found, err := h.service.GetPatient(c.Request.Context(), principal.ID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, found)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}

	var req model.UpdatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BindError(c, err)
		return
	}

	updated, err := h.service.UpdateProfile(c.Request.Context(), principal, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, updated)
}

// UploadAvatar expects a multipart form with the image in the "avatar" field.
func (h *Handler) UploadAvatar(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}

	header, err := c.FormFile(avatarField)
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("avatar file is required", err))
		return
	}

	file, err := header.Open()
	if err != nil {
		httputil.RespondWithError(c, apperrors.Internal(err))
		return
	}
	defer file.Close()

	updated, err := h.service.UploadAvatar(c.Request.Context(), principal, &patient.Avatar{
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, updated)
}
