package doctor

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medagenda/clinic-api/internal/handler"
	"github.com/medagenda/clinic-api/internal/middleware"
	"github.com/medagenda/clinic-api/internal/model"
	doctorService "github.com/medagenda/clinic-api/internal/service/doctor"
)

type Handler struct {
	service *doctorService.Service
}

func NewHandler(service *doctorService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	doctors := r.Group("/doctors")
	{
		doctors.POST("", h.UpsertDoctor)
		doctors.GET("", h.ListDoctors)
		doctors.GET("/:id", h.GetDoctor)
	}
}

// UpsertDoctor inserts when the body has no id, overwrites when it does.
func (h *Handler) UpsertDoctor(c *gin.Context) {
	authCtx, ok := middleware.AuthFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthenticated"))
		return
	}

	var req model.UpsertDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	doctor, err := h.service.UpsertDoctor(c.Request.Context(), authCtx, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	status := http.StatusOK
	if req.ID == "" {
		status = http.StatusCreated
	}
	c.JSON(status, handler.NewSuccessResponse(doctor))
}

func (h *Handler) GetDoctor(c *gin.Context) {
	authCtx, ok := middleware.AuthFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthenticated"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid doctor ID"))
		return
	}

	doctor, err := h.service.GetDoctor(c.Request.Context(), authCtx, id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(doctor))
}

func (h *Handler) ListDoctors(c *gin.Context) {
	authCtx, ok := middleware.AuthFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthenticated"))
		return
	}

	doctors, err := h.service.ListDoctors(c.Request.Context(), authCtx)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(doctors))
}
