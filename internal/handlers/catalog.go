package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/expohall/expoadmin-backend/internal/catalog"
	"github.com/expohall/expoadmin-backend/internal/logger"
)

type CatalogHandler struct {
	log     *logger.Logger
	catalog *catalog.Service
}

func NewCatalogHandler(baseLog *logger.Logger, svc *catalog.Service) *CatalogHandler {
	return &CatalogHandler{
		log:     baseLog.With("handler", "CatalogHandler"),
		catalog: svc,
	}
}

// GetCatalog serves the static event catalog (forms, payment options,
// calendar) straight from the in-memory copy.
func (h *CatalogHandler) GetCatalog(c *gin.Context) {
	RespondOK(c, http.StatusOK, h.catalog.Catalog())
}
