package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medagenda/clinic-api/internal/handler"
	"github.com/medagenda/clinic-api/internal/middleware"
	"github.com/medagenda/clinic-api/internal/model"
	authService "github.com/medagenda/clinic-api/internal/service/auth"
	clinicService "github.com/medagenda/clinic-api/internal/service/clinic"
)

type Handler struct {
	service   *authService.Service
	clinicSvc *clinicService.Service
}

func NewHandler(service *authService.Service, clinicSvc *clinicService.Service) *Handler {
	return &Handler{service: service, clinicSvc: clinicSvc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
	}
}

func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	r.GET("/auth/me", h.Me)
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	user, tokens, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(gin.H{
		"user":   user,
		"tokens": tokens,
	}))
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	tokens, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(tokens))
}

func (h *Handler) Refresh(c *gin.Context) {
	var req model.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	tokens, err := h.service.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(tokens))
}

// Me returns the authenticated user plus the clinic the session resolved to,
// so the UI can route between dashboard and clinic setup.
func (h *Handler) Me(c *gin.Context) {
	authCtx, ok := middleware.AuthFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthenticated"))
		return
	}

	user, err := h.service.GetUser(c.Request.Context(), authCtx.UserID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	info := &model.SessionInfo{User: user}
	if authCtx.HasClinic {
		clinic, err := h.clinicSvc.GetClinic(c.Request.Context(), authCtx, authCtx.ClinicID)
		if err == nil {
			info.Clinic = clinic
		}
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(info))
}
