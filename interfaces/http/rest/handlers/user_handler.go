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

// UserHandler serves user profiles and the follow graph.
type UserHandler struct {
	users         ports.UserRepository
	follows       ports.FollowRepository
	notifications ports.NotificationRepository
	publisher     ports.EventPublisher
	logger        *zap.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(
	users ports.UserRepository,
	follows ports.FollowRepository,
	notifications ports.NotificationRepository,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *UserHandler {
	return &UserHandler{
		users:         users,
		follows:       follows,
		notifications: notifications,
		publisher:     publisher,
		logger:        logger,
	}
}

// RegisterUserRequest is the payload for creating a profile.
type RegisterUserRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=30,alphanum"`
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"displayName" validate:"max=100"`
	Bio         string `json:"bio" validate:"max=500"`
}

// UpdateUserRequest is the payload for patching a profile.
type UpdateUserRequest struct {
	DisplayName *string `json:"displayName" validate:"omitempty,max=100"`
	Bio         *string `json:"bio" validate:"omitempty,max=500"`
	AvatarURL   *string `json:"avatarUrl" validate:"omitempty,url"`
}

// userProfileResponse bundles a profile with its counters.
type userProfileResponse struct {
	User  *model.User      `json:"user"`
	Stats *model.UserStats `json:"stats,omitempty"`
}

// RegisterUser creates the caller's profile. The user id comes from the
// token, never the payload.
func (h *UserHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, appErrors.NewUnauthorizedError("authentication required"))
		return
	}

	var req RegisterUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}

	user := &model.User{
		UserID:      caller.UserID,
		Username:    req.Username,
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
	}
	if err := h.users.CreateUser(r.Context(), user); err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, user)
}

// GetUser returns a public profile with stats.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	user, err := h.users.GetUser(r.Context(), userID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	if user == nil {
		common.RespondAppError(w, appErrors.NewNotFoundError("user"))
		return
	}

	stats, err := h.users.GetUserStats(r.Context(), userID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, userProfileResponse{User: user, Stats: stats})
}

// UpdateMe patches the caller's own profile.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, appErrors.NewUnauthorizedError("authentication required"))
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}

	user, err := h.users.UpdateUser(r.Context(), caller.UserID, model.UserUpdate{
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		AvatarURL:   req.AvatarURL,
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	if user == nil {
		common.RespondAppError(w, appErrors.NewNotFoundError("user"))
		return
	}

	common.RespondJSON(w, http.StatusOK, user)
}

// FollowUser makes the caller follow the path user. Repeated follows are
// idempotent at the API level: the duplicate reports success without touching
// counters.
func (h *UserHandler) FollowUser(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, appErrors.NewUnauthorizedError("authentication required"))
		return
	}
	followeeID := chi.URLParam(r, "userID")

	followee, err := h.users.GetUser(r.Context(), followeeID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	if followee == nil {
		common.RespondAppError(w, appErrors.NewNotFoundError("user"))
		return
	}

	created, err := h.follows.Follow(r.Context(), caller.UserID, followeeID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	if created {
		h.notifyAndPublishFollow(r, caller, followeeID)
	}

	common.RespondJSON(w, http.StatusOK, map[string]bool{"following": true})
}

// notifyAndPublishFollow emits the side effects of a new follow edge. Both
// are best-effort.
func (h *UserHandler) notifyAndPublishFollow(r *http.Request, caller auth.UserContext, followeeID string) {
	ctx := r.Context()

	err := h.notifications.CreateNotification(ctx, &model.Notification{
		UserID:        followeeID,
		Type:          model.NotificationFollow,
		ActorID:       caller.UserID,
		ActorUsername: caller.Username,
		Message:       caller.Username + " started following you",
	})
	if err != nil {
		h.logger.Warn("follow notification failed",
			zap.String("followeeId", followeeID),
			zap.Error(err),
		)
	}

	err = h.publisher.Publish(ctx, ports.EventUserFollowed, map[string]string{
		"followerId": caller.UserID,
		"followeeId": followeeID,
	})
	if err != nil {
		h.logger.Warn("follow event publish failed", zap.Error(err))
	}
}

// UnfollowUser removes the caller's follow edge. Unfollowing someone not
// followed reports success without touching counters.
func (h *UserHandler) UnfollowUser(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, appErrors.NewUnauthorizedError("authentication required"))
		return
	}
	followeeID := chi.URLParam(r, "userID")

	if _, err := h.follows.Unfollow(r.Context(), caller.UserID, followeeID); err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]bool{"following": false})
}

// GetFollowers lists who follows the path user.
func (h *UserHandler) GetFollowers(w http.ResponseWriter, r *http.Request) {
	page := pageFromRequest(r)
	follows, next, err := h.follows.GetUserFollowers(r.Context(), chi.URLParam(r, "userID"), page)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, common.ListResponse{Items: follows, NextToken: next})
}

// GetFollowing lists who the path user follows.
func (h *UserHandler) GetFollowing(w http.ResponseWriter, r *http.Request) {
	page := pageFromRequest(r)
	follows, next, err := h.follows.GetUserFollowing(r.Context(), chi.URLParam(r, "userID"), page)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, common.ListResponse{Items: follows, NextToken: next})
}

// pageFromRequest adapts query params into the repository page shape.
func pageFromRequest(r *http.Request) ports.Page {
	params := common.ExtractPageParams(r)
	return ports.Page{Limit: params.Limit, Token: params.Token}
}
