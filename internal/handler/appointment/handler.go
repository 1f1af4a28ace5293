package appointment

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medagenda/clinic-api/internal/handler"
	"github.com/medagenda/clinic-api/internal/middleware"
	"github.com/medagenda/clinic-api/internal/model"
	appointmentService "github.com/medagenda/clinic-api/internal/service/appointment"
)

type Handler struct {
	service *appointmentService.Service
}

func NewHandler(service *appointmentService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.UpsertAppointment)
		appointments.GET("", h.ListAppointments)
		appointments.GET("/:id", h.GetAppointment)
	}
}

func (h *Handler) UpsertAppointment(c *gin.Context) {
	authCtx, ok := middleware.AuthFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthenticated"))
		return
	}

	var req model.UpsertAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	appointment, err := h.service.UpsertAppointment(c.Request.Context(), authCtx, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	status := http.StatusOK
	if req.ID == "" {
		status = http.StatusCreated
	}
	c.JSON(status, handler.NewSuccessResponse(appointment))
}

func (h *Handler) GetAppointment(c *gin.Context) {
	authCtx, ok := middleware.AuthFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthenticated"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	appointment, err := h.service.GetAppointment(c.Request.Context(), authCtx, id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointment))
}

// ListAppointments accepts optional patient_id, doctor_id, from and to query
// parameters; from/to take RFC 3339 timestamps or bare dates.
func (h *Handler) ListAppointments(c *gin.Context) {
	authCtx, ok := middleware.AuthFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthenticated"))
		return
	}

	filters, err := parseFilters(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	appointments, err := h.service.ListAppointments(c.Request.Context(), authCtx, filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointments))
}

func parseFilters(c *gin.Context) (*model.AppointmentFilters, error) {
	filters := &model.AppointmentFilters{}

	if raw := c.Query("patient_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, &filterError{"invalid patient_id filter"}
		}
		filters.PatientID = id
	}
	if raw := c.Query("doctor_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, &filterError{"invalid doctor_id filter"}
		}
		filters.DoctorID = id
	}
	if raw := c.Query("from"); raw != "" {
		t, err := parseTimestamp(raw)
		if err != nil {
			return nil, &filterError{"invalid from filter"}
		}
		filters.From = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := parseTimestamp(raw)
		if err != nil {
			return nil, &filterError{"invalid to filter"}
		}
		filters.To = t
	}

	return filters, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, raw)
	if err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

type filterError struct {
	message string
}

func (e *filterError) Error() string { return e.message }
