package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/open-depot/archive-api/internal/dto"
	"github.com/open-depot/archive-api/internal/models"
	"github.com/open-depot/archive-api/internal/selection"
	appErrors "github.com/open-depot/archive-api/pkg/errors"
	"github.com/open-depot/archive-api/pkg/response"
)

type explorerService interface {
	Open(ctx context.Context, datasetID string, principal *models.Principal) (*dto.OpenExplorerResponse, error)
	Close(sessionID string, principal *models.Principal) error
	ListFolder(ctx context.Context, sessionID, folderID string, filter *dto.FolderFilter, principal *models.Principal) (*dto.ListFolderResponse, error)
	UpdateSelection(ctx context.Context, sessionID string, req *dto.SelectionRequest, principal *models.Principal) (*dto.SelectionSnapshot, error)
	Selection(sessionID string, principal *models.Principal) (*dto.SelectionSnapshot, error)
	Download(ctx context.Context, sessionID string, principal *models.Principal) (*selection.DownloadOutcome, *dto.DownloadConfirmation, error)
	ConfirmDownload(ctx context.Context, sessionID string, principal *models.Principal) (*selection.PackageResult, error)
	ApplyRights(ctx context.Context, sessionID string, req *dto.RightsUpdateRequest, principal *models.Principal) error
	DeleteSelection(ctx context.Context, sessionID string, principal *models.Principal) error
}

// ExplorerHandler manages browsing-session HTTP endpoints.
type ExplorerHandler struct {
	service explorerService
}

// NewExplorerHandler constructs the handler.
func NewExplorerHandler(service explorerService) *ExplorerHandler {
	return &ExplorerHandler{service: service}
}

// Open godoc
// @Summary Open a browsing session for a dataset
// @Tags Explorer
// @Produce json
// @Param id path string true "Dataset ID"
// @Success 201 {object} response.Envelope{data=dto.OpenExplorerResponse}
// @Router /datasets/{id}/explorer [post]
func (h *ExplorerHandler) Open(c *gin.Context) {
	result, err := h.service.Open(c.Request.Context(), c.Param("id"), principalFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Close godoc
// @Summary Discard a browsing session
// @Tags Explorer
// @Param sid path string true "Session ID"
// @Success 204
// @Router /explorer/{sid} [delete]
func (h *ExplorerHandler) Close(c *gin.Context) {
	if err := h.service.Close(c.Param("sid"), principalFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListFolder godoc
// @Summary List a folder's discoverable children
// @Description Archivists may narrow the listing with creator, visibleTo and
// @Description accessibleTo query parameters; each may be repeated.
// @Tags Explorer
// @Produce json
// @Param sid path string true "Session ID"
// @Param fid path string true "Folder ID"
// @Param creator query []string false "Creator role filter" collectionFormat(multi)
// @Param visibleTo query []string false "Visibility filter" collectionFormat(multi)
// @Param accessibleTo query []string false "Accessibility filter" collectionFormat(multi)
// @Success 200 {object} response.Envelope{data=dto.ListFolderResponse}
// @Router /explorer/{sid}/folders/{fid} [get]
func (h *ExplorerHandler) ListFolder(c *gin.Context) {
	var filter dto.FolderFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid listing filter"))
		return
	}
	result, err := h.service.ListFolder(c.Request.Context(), c.Param("sid"), c.Param("fid"), &filter, principalFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// UpdateSelection godoc
// @Summary Toggle, select-all or clear the session selection
// @Tags Explorer
// @Accept json
// @Produce json
// @Param sid path string true "Session ID"
// @Param payload body dto.SelectionRequest true "Selection mutation"
// @Success 200 {object} response.Envelope{data=dto.SelectionSnapshot}
// @Router /explorer/{sid}/selection [post]
func (h *ExplorerHandler) UpdateSelection(c *gin.Context) {
	var req dto.SelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid selection payload"))
		return
	}
	result, err := h.service.UpdateSelection(c.Request.Context(), c.Param("sid"), &req, principalFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// GetSelection godoc
// @Summary Read the current session selection
// @Tags Explorer
// @Produce json
// @Param sid path string true "Session ID"
// @Success 200 {object} response.Envelope{data=dto.SelectionSnapshot}
// @Router /explorer/{sid}/selection [get]
func (h *ExplorerHandler) GetSelection(c *gin.Context) {
	result, err := h.service.Selection(c.Param("sid"), principalFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Download godoc
// @Summary Download the selected items
// @Description Streams a zip immediately when nothing was filtered and no
// @Description license gate applies, otherwise returns a confirmation payload.
// @Tags Explorer
// @Produce json
// @Produce application/zip
// @Param sid path string true "Session ID"
// @Success 200 {file} binary "zip stream"
// @Success 202 {object} response.Envelope{data=dto.DownloadConfirmation}
// @Router /explorer/{sid}/download [post]
func (h *ExplorerHandler) Download(c *gin.Context) {
	outcome, confirmation, err := h.service.Download(c.Request.Context(), c.Param("sid"), principalFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if confirmation != nil {
		response.JSON(c, http.StatusAccepted, confirmation, nil)
		return
	}
	streamPackage(c, outcome.Package)
}

// ConfirmDownload godoc
// @Summary Download after the confirmation dialog
// @Tags Explorer
// @Produce application/zip
// @Param sid path string true "Session ID"
// @Success 200 {file} binary
// @Router /explorer/{sid}/download/confirm [post]
func (h *ExplorerHandler) ConfirmDownload(c *gin.Context) {
	pkg, err := h.service.ConfirmDownload(c.Request.Context(), c.Param("sid"), principalFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	streamPackage(c, pkg)
}

func streamPackage(c *gin.Context, pkg *selection.PackageResult) {
	defer pkg.Content.Close() //nolint:errcheck
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", pkg.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, pkg.SizeBytes, "application/zip", pkg.Content, nil)
}

// ApplyRights godoc
// @Summary Change visibility or accessibility on the selected items
// @Tags Explorer
// @Accept json
// @Produce json
// @Param sid path string true "Session ID"
// @Param payload body dto.RightsUpdateRequest true "Scope changes"
// @Success 204
// @Router /explorer/{sid}/rights [put]
func (h *ExplorerHandler) ApplyRights(c *gin.Context) {
	var req dto.RightsUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid rights payload"))
		return
	}
	if err := h.service.ApplyRights(c.Request.Context(), c.Param("sid"), &req, principalFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DeleteSelection godoc
// @Summary Delete the selected items
// @Tags Explorer
// @Produce json
// @Param sid path string true "Session ID"
// @Success 204
// @Router /explorer/{sid}/items [delete]
func (h *ExplorerHandler) DeleteSelection(c *gin.Context) {
	if err := h.service.DeleteSelection(c.Request.Context(), c.Param("sid"), principalFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
