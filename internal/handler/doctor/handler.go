package doctor

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/slotbook-api/internal/handler"
	"github.com/jwalitptl/slotbook-api/internal/model"
	"github.com/jwalitptl/slotbook-api/internal/service/doctor"
	"github.com/jwalitptl/slotbook-api/pkg/httputil"
)

type Handler struct {
	service doctor.DoctorService
}

func NewHandler(service doctor.DoctorService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterDoctorRequest
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

func (h *Handler) GetDoctor(c *gin.Context) {
	id, ok := handler.ParseID(c, "id", "doctor")
	if !ok {
		return
	}

	found, err := h.service.GetDoctor(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, found)
}

func (h *Handler) ListDoctors(c *gin.Context) {
	filters := &model.DoctorFilters{Specialty: c.Query("specialty")}

	doctors, err := h.service.ListDoctors(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, doctors)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}

	var req model.UpdateDoctorRequest
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
