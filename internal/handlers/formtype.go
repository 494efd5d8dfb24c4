package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/expohall/expoadmin-backend/internal/logger"
	"github.com/expohall/expoadmin-backend/internal/services"
)

type FormTypeHandler struct {
	log     *logger.Logger
	service services.FormTypeService
}

func NewFormTypeHandler(baseLog *logger.Logger, service services.FormTypeService) *FormTypeHandler {
	return &FormTypeHandler{
		log:     baseLog.With("handler", "FormTypeHandler"),
		service: service,
	}
}

func (h *FormTypeHandler) List(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, http.StatusOK, gin.H{"form_types": list})
}

func (h *FormTypeHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	ft, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, http.StatusOK, ft)
}

type setActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

func (h *FormTypeHandler) SetActive(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", "invalid request body: "+err.Error())
		return
	}
	ft, err := h.service.SetActive(c.Request.Context(), id, *req.Active)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, http.StatusOK, ft)
}
