package slot

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/slotbook-api/internal/handler"
	"github.com/jwalitptl/slotbook-api/internal/model"
	"github.com/jwalitptl/slotbook-api/internal/service/slot"
	apperrors "github.com/jwalitptl/slotbook-api/pkg/errors"
	"github.com/jwalitptl/slotbook-api/pkg/httputil"
)

type Handler struct {
	service slot.SlotService
}

func NewHandler(service slot.SlotService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) CreateSlot(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}

	var req model.CreateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BindError(c, err)
		return
	}

	created, err := h.service.CreateSlot(c.Request.Context(), principal, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, created)
}

// ListDoctorSlots serves GET /doctors/:id/slots?available=true.
func (h *Handler) ListDoctorSlots(c *gin.Context) {
	doctorID, ok := handler.ParseID(c, "id", "doctor")
	if !ok {
		return
	}

	onlyAvailable := false
	if v := c.Query("available"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			httputil.RespondWithError(c, apperrors.Validation("available must be a boolean", err))
			return
		}
		onlyAvailable = parsed
	}

	slots, err := h.service.ListSlotsForDoctor(c.Request.Context(), doctorID, onlyAvailable)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, slots)
}

func (h *Handler) GetSlot(c *gin.Context) {
	id, ok := handler.ParseID(c, "id", "slot")
	if !ok {
		return
	}

	found, err := h.service.GetSlot(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, found)
}

func (h *Handler) DeleteSlot(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id", "slot")
	if !ok {
		return
	}

	if err := h.service.DeleteSlot(c.Request.Context(), principal, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, httputil.Response{Status: httputil.StatusSuccess, Message: "slot deleted"})
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id", "slot")
	if !ok {
		return
	}

	var req model.UpdateSlotStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BindError(c, err)
		return
	}

	updated, err := h.service.UpdateStatus(c.Request.Context(), principal, id, req.Status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, updated)
}

func (h *Handler) BookSlot(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id", "slot")
	if !ok {
		return
	}

	booked, err := h.service.BookSlot(c.Request.Context(), principal, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, booked)
}

func (h *Handler) CancelSlot(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id", "slot")
	if !ok {
		return
	}

	cancelled, err := h.service.CancelSlot(c.Request.Context(), principal, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, cancelled)
}

func (h *Handler) AddPrescription(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id", "slot")
	if !ok {
		return
	}

	var req model.PrescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BindError(c, err)
		return
	}

	updated, err := h.service.AddPrescription(c.Request.Context(), principal, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, updated)
}

func (h *Handler) UpdatePrescription(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id", "slot")
	if !ok {
		return
	}

	var patch model.PrescriptionPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		httputil.BindError(c, err)
		return
	}

	updated, err := h.service.UpdatePrescription(c.Request.Context(), principal, id, &patch)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, updated)
}

func (h *Handler) GetPrescription(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id", "slot")
	if !ok {
		return
	}

	prescription, err := h.service.GetPrescription(c.Request.Context(), principal, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, prescription)
}

func (h *Handler) ListBookings(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}

	bookings, err := h.service.ListBookingsForPatient(c.Request.Context(), principal)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, bookings)
}

func (h *Handler) ListAppointments(c *gin.Context) {
	principal, ok := handler.Principal(c)
	if !ok {
		return
	}

	appointments, err := h.service.ListAppointmentsForDoctor(c.Request.Context(), principal)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointments)
}
