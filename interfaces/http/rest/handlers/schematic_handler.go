package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"schemstory-backend/application/ports"
	"schemstory-backend/domain/model"
	"schemstory-backend/pkg/auth"
	"schemstory-backend/pkg/common"
	appErrors "schemstory-backend/pkg/errors"
	"schemstory-backend/pkg/utils"
)

// SchematicHandler serves schematic CRUD, listing, and counters.
type SchematicHandler struct {
	schematics ports.SchematicRepository
	publisher  ports.EventPublisher
	logger     *zap.Logger
}

// NewSchematicHandler creates a new schematic handler.
func NewSchematicHandler(
	schematics ports.SchematicRepository,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *SchematicHandler {
	return &SchematicHandler{schematics: schematics, publisher: publisher, logger: logger}
}

// CreateSchematicRequest is the payload for uploading a schematic.
type CreateSchematicRequest struct {
	Title       string   `json:"title" validate:"required,min=1,max=120"`
	Description string   `json:"description" validate:"max=2000"`
	Tags        []string `json:"tags" validate:"max=10,dive,min=1,max=40"`
	FileURL     string   `json:"fileUrl" validate:"required,url"`
	CoverImage  string   `json:"coverImageUrl" validate:"omitempty,url"`
	Width       int      `json:"width" validate:"min=0"`
	Height      int      `json:"height" validate:"min=0"`
	Length      int      `json:"length" validate:"min=0"`
	BlockCount  int      `json:"blockCount" validate:"min=0"`
}

// UpdateSchematicRequest is the payload for patching a schematic.
type UpdateSchematicRequest struct {
	Title       *string   `json:"title" validate:"omitempty,min=1,max=120"`
	Description *string   `json:"description" validate:"omitempty,max=2000"`
	Tags        *[]string `json:"tags" validate:"omitempty,max=10,dive,min=1,max=40"`
	CoverImage  *string   `json:"coverImageUrl" validate:"omitempty,url"`
	FileURL     *string   `json:"fileUrl" validate:"omitempty,url"`
}

// schematicResponse bundles metadata with its counters.
type schematicResponse struct {
	Schematic *model.Schematic      `json:"schematic"`
	Stats     *model.SchematicStats `json:"stats,omitempty"`
}

// CreateSchematic uploads a new schematic for the caller.
func (h *SchematicHandler) CreateSchematic(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, appErrors.NewUnauthorizedError("authentication required"))
		return
	}

	var req CreateSchematicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}

	s := &model.Schematic{
		Title:          req.Title,
		Description:    req.Description,
		AuthorID:       caller.UserID,
		AuthorUsername: caller.Username,
		Tags:           req.Tags,
		FileURL:        req.FileURL,
		CoverImageURL:  req.CoverImage,
		Width:          req.Width,
		Height:         req.Height,
		Length:         req.Length,
		BlockCount:     req.BlockCount,
	}
	if err := h.schematics.CreateSchematic(r.Context(), s); err != nil {
		common.RespondAppError(w, err)
		return
	}

	if err := h.publisher.Publish(r.Context(), ports.EventSchematicCreated, s); err != nil {
		h.logger.Warn("schematic created event publish failed",
			zap.String("schematicId", s.SchematicID),
			zap.Error(err),
		)
	}

	common.RespondJSON(w, http.StatusCreated, s)
}

// GetSchematic returns one schematic with its counters.
func (h *SchematicHandler) GetSchematic(w http.ResponseWriter, r *http.Request) {
	schematicID := chi.URLParam(r, "schematicID")

	s, err := h.schematics.GetSchematic(r.Context(), schematicID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	if s == nil {
		common.RespondAppError(w, appErrors.NewNotFoundError("schematic"))
		return
	}

	stats, err := h.schematics.GetSchematicStats(r.Context(), schematicID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, schematicResponse{Schematic: s, Stats: stats})
}

// ListSchematics serves the global feed, or one tag's slice of it when the
// tag query param is present.
func (h *SchematicHandler) ListSchematics(w http.ResponseWriter, r *http.Request) {
	page := pageFromRequest(r)

	var (
		schematics []*model.Schematic
		next       string
		err        error
	)
	if tag := r.URL.Query().Get("tag"); tag != "" {
		schematics, next, err = h.schematics.GetSchematicsByTag(r.Context(), tag, page)
	} else {
		schematics, next, err = h.schematics.GetLatestSchematics(r.Context(), page)
	}
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, common.ListResponse{Items: schematics, NextToken: next})
}

// ListUserSchematics lists one author's schematics.
func (h *SchematicHandler) ListUserSchematics(w http.ResponseWriter, r *http.Request) {
	page := pageFromRequest(r)
	schematics, next, err := h.schematics.GetUserSchematics(r.Context(), chi.URLParam(r, "userID"), page)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, common.ListResponse{Items: schematics, NextToken: next})
}

// UpdateSchematic patches a schematic the caller owns.
func (h *SchematicHandler) UpdateSchematic(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, appErrors.NewUnauthorizedError("authentication required"))
		return
	}

	var req UpdateSchematicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}

	s, err := h.schematics.UpdateSchematic(r.Context(), chi.URLParam(r, "schematicID"), caller.UserID, model.SchematicUpdate{
		Title:         req.Title,
		Description:   req.Description,
		Tags:          req.Tags,
		CoverImageURL: req.CoverImage,
		FileURL:       req.FileURL,
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	if s == nil {
		common.RespondAppError(w, appErrors.NewNotFoundError("schematic"))
		return
	}

	common.RespondJSON(w, http.StatusOK, s)
}

// DeleteSchematic soft-deletes a schematic the caller owns.
func (h *SchematicHandler) DeleteSchematic(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, appErrors.NewUnauthorizedError("authentication required"))
		return
	}
	schematicID := chi.URLParam(r, "schematicID")

	deleted, err := h.schematics.SoftDeleteSchematic(r.Context(), schematicID, caller.UserID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	if !deleted {
		common.RespondAppError(w, appErrors.NewNotFoundError("schematic"))
		return
	}

	if err := h.publisher.Publish(r.Context(), ports.EventSchematicDeleted, map[string]string{
		"schematicId": schematicID,
	}); err != nil {
		h.logger.Warn("schematic deleted event publish failed",
			zap.String("schematicId", schematicID),
			zap.Error(err),
		)
	}

	w.WriteHeader(http.StatusNoContent)
}

// RecordDownload bumps the download counter.
func (h *SchematicHandler) RecordDownload(w http.ResponseWriter, r *http.Request) {
	h.bumpStat(w, r, "downloadCount")
}

// LikeSchematic bumps the like counter.
func (h *SchematicHandler) LikeSchematic(w http.ResponseWriter, r *http.Request) {
	h.bumpStat(w, r, "likeCount")
}

func (h *SchematicHandler) bumpStat(w http.ResponseWriter, r *http.Request, stat string) {
	schematicID := chi.URLParam(r, "schematicID")

	s, err := h.schematics.GetSchematicStats(r.Context(), schematicID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	if s == nil {
		common.RespondAppError(w, appErrors.NewNotFoundError("schematic"))
		return
	}

	if err := h.schematics.IncrementSchematicStat(r.Context(), schematicID, stat); err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]bool{"recorded": true})
}
