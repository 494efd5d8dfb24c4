package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/expohall/expoadmin-backend/internal/logger"
	"github.com/expohall/expoadmin-backend/internal/services"
)

// IntakeHandler serves the public, unauthenticated submission endpoints the
// event site posts to.
type IntakeHandler struct {
	log       *logger.Logger
	intake    services.IntakeService
	formTypes services.FormTypeService
}

func NewIntakeHandler(baseLog *logger.Logger, intake services.IntakeService, formTypes services.FormTypeService) *IntakeHandler {
	return &IntakeHandler{
		log:       baseLog.With("handler", "IntakeHandler"),
		intake:    intake,
		formTypes: formTypes,
	}
}

// SubmitForm accepts an arbitrary JSON object as the payload for the form
// type named by key; field validation happens against the form type's schema.
func (h *IntakeHandler) SubmitForm(c *gin.Context) {
	key := c.Param("key")
	ft, err := h.formTypes.GetByKey(c.Request.Context(), key)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", "invalid request body: "+err.Error())
		return
	}

	contact, err := h.intake.SubmitContact(c.Request.Context(), ft.ID, payload, "web")
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, http.StatusCreated, gin.H{"id": contact.ID})
}

type newsletterRequest struct {
	Email string `json:"email" binding:"required"`
	Name  string `json:"name"`
}

func (h *IntakeHandler) SubmitNewsletter(c *gin.Context) {
	var req newsletterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", "invalid request body: "+err.Error())
		return
	}
	row, err := h.intake.SubmitNewsletter(c.Request.Context(), req.Email, req.Name)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, http.StatusCreated, gin.H{"id": row.ID})
}

func (h *IntakeHandler) SubmitPreRegistration(c *gin.Context) {
	var req services.PreRegistrationInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", "invalid request body: "+err.Error())
		return
	}
	row, err := h.intake.SubmitPreRegistration(c.Request.Context(), req)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, http.StatusCreated, gin.H{"id": row.ID})
}
