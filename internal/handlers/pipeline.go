package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/expohall/expoadmin-backend/internal/logger"
	"github.com/expohall/expoadmin-backend/internal/services"
)

type PipelineHandler struct {
	log     *logger.Logger
	service services.PipelineService
}

func NewPipelineHandler(baseLog *logger.Logger, service services.PipelineService) *PipelineHandler {
	return &PipelineHandler{
		log:     baseLog.With("handler", "PipelineHandler"),
		service: service,
	}
}

type createPipelineRequest struct {
	FormTypeID  uuid.UUID `json:"form_type_id" binding:"required"`
	Name        string    `json:"name" binding:"required"`
	Description string    `json:"description"`
}

func (h *PipelineHandler) CreatePipeline(c *gin.Context) {
	var req createPipelineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", "invalid request body: "+err.Error())
		return
	}
	pipeline, err := h.service.CreatePipeline(c.Request.Context(), req.FormTypeID, req.Name, req.Description)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, http.StatusCreated, pipeline)
}

func (h *PipelineHandler) ListPipelines(c *gin.Context) {
	pipelines, err := h.service.ListPipelines(c.Request.Context())
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, http.StatusOK, gin.H{"pipelines": pipelines})
}

func (h *PipelineHandler) GetPipeline(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	pipeline, err := h.service.GetPipeline(c.Request.Context(), id)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, http.StatusOK, pipeline)
}

func (h *PipelineHandler) ListStages(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	stages, err := h.service.ListStages(c.Request.Context(), id)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, http.StatusOK, gin.H{"stages": stages})
}

type createStageRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

func (h *PipelineHandler) CreateStage(c *gin.Context) {
	pipelineID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req createStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", "invalid request body: "+err.Error())
		return
	}
	stage, err := h.service.CreateStage(c.Request.Context(), pipelineID, req.Name, req.Description, req.Color)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, http.StatusCreated, stage)
}

type updateStageRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	Order       *int    `json:"order"`
	Active      *bool   `json:"active"`
}

func (h *PipelineHandler) UpdateStage(c *gin.Context) {
	stageID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req updateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", "invalid request body: "+err.Error())
		return
	}
	stage, err := h.service.UpdateStage(c.Request.Context(), stageID, services.StageUpdate{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		Order:       req.Order,
		Active:      req.Active,
	})
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, http.StatusOK, stage)
}

func (h *PipelineHandler) DeleteStage(c *gin.Context) {
	stageID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteStage(c.Request.Context(), stageID); err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, http.StatusOK, gin.H{"deleted": stageID})
}

func (h *PipelineHandler) NormalizePipeline(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.service.NormalizePipeline(c.Request.Context(), id); err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, http.StatusOK, gin.H{"normalized": id})
}

// pathUUID parses a uuid path param, answering 400 itself on garbage.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation", "invalid "+name+" path parameter")
		return uuid.Nil, false
	}
	return id, true
}
