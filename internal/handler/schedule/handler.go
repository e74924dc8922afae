package schedule

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/middleware"
	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/service/schedule"
	apperrors "github.com/clinicore/clinic-api/pkg/errors"
	"github.com/clinicore/clinic-api/pkg/httputil"
)

type Handler struct {
	service *schedule.Service
}

func NewHandler(service *schedule.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	windows := rg.Group("/windows")
	{
		windows.POST("", middleware.RequireCapability(model.CapabilityManageSchedules), h.CreateWindow)
		windows.GET("/mine", h.ListOwnWindows)
		windows.GET("/:id", h.GetWindow)
		windows.PATCH("/:id", middleware.RequireCapability(model.CapabilityManageSchedules), h.UpdateWindow)
		windows.DELETE("/:id", middleware.RequireCapability(model.CapabilityManageSchedules), h.DeleteWindow)
		windows.GET("/:id/slots", h.ListSlots)
	}
	rg.GET("/doctors/:id/windows", h.ListWindows)
}

func (h *Handler) CreateWindow(c *gin.Context) {
	var req model.CreateWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid request body", err))
		return
	}

	window, err := h.service.CreateWindow(c.Request.Context(), middleware.ActorFromContext(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, window)
}

func (h *Handler) GetWindow(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid window id", err))
		return
	}

	window, err := h.service.GetWindow(c.Request.Context(), middleware.ActorFromContext(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, window)
}

func (h *Handler) UpdateWindow(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid window id", err))
		return
	}

	var req model.UpdateWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid request body", err))
		return
	}

	window, err := h.service.UpdateWindow(c.Request.Context(), middleware.ActorFromContext(c), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, window)
}

func (h *Handler) DeleteWindow(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid window id", err))
		return
	}

	if err := h.service.DeleteWindow(c.Request.Context(), middleware.ActorFromContext(c), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"deleted": id})
}

func (h *Handler) ListSlots(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid window id", err))
		return
	}

	slots, err := h.service.ListSlots(c.Request.Context(), middleware.ActorFromContext(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, slots)
}

func (h *Handler) ListOwnWindows(c *gin.Context) {
	windows, err := h.service.ListOwnWindows(c.Request.Context(), middleware.ActorFromContext(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, windows)
}

func (h *Handler) ListWindows(c *gin.Context) {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid doctor id", err))
		return
	}

	windows, err := h.service.ListWindows(c.Request.Context(), middleware.ActorFromContext(c), doctorID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, windows)
}
