package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"schemstory-backend/application/services"
	"schemstory-backend/domain/model"
	"schemstory-backend/pkg/auth"
	"schemstory-backend/pkg/common"
	appErrors "schemstory-backend/pkg/errors"
	"schemstory-backend/pkg/utils"
)

// ImageHandler serves the staged-image upload lifecycle.
type ImageHandler struct {
	images *services.ImageService
	logger *zap.Logger
}

// NewImageHandler creates a new image handler.
func NewImageHandler(images *services.ImageService, logger *zap.Logger) *ImageHandler {
	return &ImageHandler{images: images, logger: logger}
}

// UploadImageRequest is the payload announcing an uploaded object. A request
// carrying a schematicId attaches the image right away; without one the
// record is staged and expires unless promoted.
type UploadImageRequest struct {
	Kind        string `json:"kind" validate:"required,oneof=cover avatar"`
	OriginalKey string `json:"originalKey" validate:"required,min=1,max=1024"`
	ContentType string `json:"contentType" validate:"omitempty,max=128"`
	SchematicID string `json:"schematicId" validate:"omitempty,uuid4"`
}

// PromoteImageRequest names the schematic a staged image now belongs to.
type PromoteImageRequest struct {
	SchematicID string `json:"schematicId" validate:"omitempty,uuid4"`
}

// UploadImage creates the lifecycle record for an object the client just
// uploaded.
func (h *ImageHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, appErrors.NewUnauthorizedError("authentication required"))
		return
	}

	var req UploadImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}

	img, err := h.images.BeginUpload(r.Context(), caller.UserID, services.NewUpload{
		Kind:        model.ImageKind(req.Kind),
		OriginalKey: req.OriginalKey,
		ContentType: req.ContentType,
		SchematicID: req.SchematicID,
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, img)
}

// PromoteImage makes a staged-ready image permanent.
func (h *ImageHandler) PromoteImage(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, appErrors.NewUnauthorizedError("authentication required"))
		return
	}
	imageID := chi.URLParam(r, "imageID")

	// The body is optional; promoting without one leaves the image detached.
	var req PromoteImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}

	img, err := h.images.GetImage(r.Context(), imageID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	if img == nil || img.OwnerID != caller.UserID {
		common.RespondAppError(w, appErrors.NewNotFoundError("image"))
		return
	}

	promoted, err := h.images.PromoteImage(r.Context(), imageID, req.SchematicID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, promoted)
}

// DeleteImage removes an image the caller owns, record first then objects.
func (h *ImageHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, appErrors.NewUnauthorizedError("authentication required"))
		return
	}

	deleted, err := h.images.DeleteImage(r.Context(), chi.URLParam(r, "imageID"), caller.UserID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	if !deleted {
		common.RespondAppError(w, appErrors.NewNotFoundError("image"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListMyImages pages the caller's image records.
func (h *ImageHandler) ListMyImages(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, appErrors.NewUnauthorizedError("authentication required"))
		return
	}

	page := pageFromRequest(r)
	images, next, err := h.images.ListUserImages(r.Context(), caller.UserID, page)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, common.ListResponse{Items: images, NextToken: next})
}
