package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/expohall/expoadmin-backend/internal/logger"
	"github.com/expohall/expoadmin-backend/internal/repos"
	"github.com/expohall/expoadmin-backend/internal/services"
)

type ContactHandler struct {
	log     *logger.Logger
	service services.ContactService
	history services.HistoryService
}

func NewContactHandler(baseLog *logger.Logger, service services.ContactService, history services.HistoryService) *ContactHandler {
	return &ContactHandler{
		log:     baseLog.With("handler", "ContactHandler"),
		service: service,
		history: history,
	}
}

func (h *ContactHandler) ListContacts(c *gin.Context) {
	filter := repos.ContactFilter{Status: c.Query("status")}
	if raw := c.Query("form_type_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "validation", "invalid form_type_id query parameter")
			return
		}
		filter.FormTypeID = &id
	}
	if raw := c.Query("stage_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "validation", "invalid stage_id query parameter")
			return
		}
		filter.StageID = &id
	}
	filter.Limit = queryInt(c, "limit")
	filter.Offset = queryInt(c, "offset")

	contacts, err := h.service.ListContacts(c.Request.Context(), filter)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, http.StatusOK, gin.H{"contacts": contacts})
}

func (h *ContactHandler) GetContact(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	contact, err := h.service.GetContact(c.Request.Context(), id)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, http.StatusOK, contact)
}

// ListHistory returns the contact's audit ledger, most recent first.
func (h *ContactHandler) ListHistory(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if _, err := h.service.GetContact(c.Request.Context(), id); err != nil {
		RespondAppError(c, err)
		return
	}
	entries, err := h.history.ListFor(c.Request.Context(), id)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, http.StatusOK, gin.H{"history": entries})
}

type assignStageRequest struct {
	StageID uuid.UUID `json:"stage_id" binding:"required"`
}

func (h *ContactHandler) AssignStage(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req assignStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", "invalid request body: "+err.Error())
		return
	}
	contact, err := h.service.AssignToStage(c.Request.Context(), id, req.StageID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, http.StatusOK, contact)
}

type setStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *ContactHandler) SetStatus(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", "invalid request body: "+err.Error())
		return
	}
	contact, err := h.service.SetStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, http.StatusOK, contact)
}

type setPriorityRequest struct {
	Priority string `json:"priority" binding:"required"`
}

func (h *ContactHandler) SetPriority(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req setPriorityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", "invalid request body: "+err.Error())
		return
	}
	contact, err := h.service.SetPriority(c.Request.Context(), id, req.Priority)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, http.StatusOK, contact)
}

type addNoteRequest struct {
	Note string `json:"note" binding:"required"`
}

func (h *ContactHandler) AddNote(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req addNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", "invalid request body: "+err.Error())
		return
	}
	entry, err := h.service.AddNote(c.Request.Context(), id, req.Note)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, http.StatusCreated, entry)
}

func queryInt(c *gin.Context, name string) int {
	raw := c.Query(name)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
