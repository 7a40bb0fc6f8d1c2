package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/open-depot/archive-api/internal/models"
	"github.com/open-depot/archive-api/pkg/response"
)

type datasetService interface {
	Get(ctx context.Context, id string) (*models.Dataset, error)
}

// DatasetHandler serves dataset metadata.
type DatasetHandler struct {
	service datasetService
}

func NewDatasetHandler(service datasetService) *DatasetHandler {
	return &DatasetHandler{service: service}
}

// Get godoc
// @Summary Fetch dataset metadata
// @Tags Datasets
// @Produce json
// @Param id path string true "Dataset ID"
// @Success 200 {object} response.Envelope{data=models.Dataset}
// @Router /datasets/{id} [get]
func (h *DatasetHandler) Get(c *gin.Context) {
	dataset, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dataset, nil)
}
