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

// CommentHandler serves comment threads under schematics.
type CommentHandler struct {
	comments      ports.CommentRepository
	schematics    ports.SchematicRepository
	notifications ports.NotificationRepository
	publisher     ports.EventPublisher
	logger        *zap.Logger
}

// NewCommentHandler creates a new comment handler.
func NewCommentHandler(
	comments ports.CommentRepository,
	schematics ports.SchematicRepository,
	notifications ports.NotificationRepository,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *CommentHandler {
	return &CommentHandler{
		comments:      comments,
		schematics:    schematics,
		notifications: notifications,
		publisher:     publisher,
		logger:        logger,
	}
}

// CommentRequest is the payload for creating or editing a comment.
type CommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=2000"`
}

// CreateComment posts a comment on a schematic and notifies its author.
func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, appErrors.NewUnauthorizedError("authentication required"))
		return
	}
	schematicID := chi.URLParam(r, "schematicID")

	var req CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}

	s, err := h.schematics.GetSchematic(r.Context(), schematicID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	if s == nil {
		common.RespondAppError(w, appErrors.NewNotFoundError("schematic"))
		return
	}

	c := &model.Comment{
		SchematicID:    schematicID,
		AuthorID:       caller.UserID,
		AuthorUsername: caller.Username,
		Content:        req.Content,
	}
	if err := h.comments.CreateComment(r.Context(), c); err != nil {
		common.RespondAppError(w, err)
		return
	}

	// Commenting on your own schematic makes no noise.
	if s.AuthorID != caller.UserID {
		err := h.notifications.CreateNotification(r.Context(), &model.Notification{
			UserID:        s.AuthorID,
			Type:          model.NotificationComment,
			ActorID:       caller.UserID,
			ActorUsername: caller.Username,
			TargetID:      schematicID,
			Message:       caller.Username + " commented on " + s.Title,
		})
		if err != nil {
			h.logger.Warn("comment notification failed",
				zap.String("schematicId", schematicID),
				zap.Error(err),
			)
		}
	}

	if err := h.publisher.Publish(r.Context(), ports.EventCommentCreated, c); err != nil {
		h.logger.Warn("comment created event publish failed", zap.Error(err))
	}

	common.RespondJSON(w, http.StatusCreated, c)
}

// ListComments pages a schematic's comments.
func (h *CommentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	page := pageFromRequest(r)
	comments, next, err := h.comments.GetCommentsBySchematic(r.Context(), chi.URLParam(r, "schematicID"), page)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, common.ListResponse{Items: comments, NextToken: next})
}

// UpdateComment edits a comment the caller authored.
func (h *CommentHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, appErrors.NewUnauthorizedError("authentication required"))
		return
	}

	var req CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}

	c, err := h.comments.UpdateComment(r.Context(), chi.URLParam(r, "commentID"), caller.UserID, req.Content)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	if c == nil {
		common.RespondAppError(w, appErrors.NewNotFoundError("comment"))
		return
	}

	common.RespondJSON(w, http.StatusOK, c)
}

// DeleteComment removes a comment the caller authored.
func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, appErrors.NewUnauthorizedError("authentication required"))
		return
	}

	deleted, err := h.comments.DeleteComment(r.Context(), chi.URLParam(r, "commentID"), caller.UserID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	if !deleted {
		common.RespondAppError(w, appErrors.NewNotFoundError("comment"))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
