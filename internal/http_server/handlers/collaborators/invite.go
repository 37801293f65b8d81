package collaborators

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	resp "projectboard/internal/lib/api/response"
	sl "projectboard/internal/lib/logger"
	"projectboard/internal/middleware/roles"
	"projectboard/internal/models"
	"projectboard/internal/storage"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type InviteRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=editor viewer"`
}

type InviteResponse struct {
	resp.Response
	Collaboration models.Collaboration `json:"data"`
}

type UserProvider interface {
	UserByEmail(ctx context.Context, email string) (models.User, error)
}

type ProjectProvider interface {
	Project(ctx context.Context, id int64) (models.Project, error)
}

type Store interface {
	SaveCollaboration(ctx context.Context, projectID, userID int64, role models.Role) error
	AcceptCollaboration(ctx context.Context, projectID, userID int64) error
	UpdateCollaborationRole(ctx context.Context, projectID, userID int64, role models.Role) error
	DeleteCollaboration(ctx context.Context, projectID, userID int64) error
	CollaboratorsForProject(ctx context.Context, projectID int64) ([]models.Collaboration, error)
}

type Publisher interface {
	SendMessage(ctx context.Context, msg models.Message) error
}

// Invite creates a pending collaboration for the user with the given
// email and publishes a notification. The invite grants nothing until
// accepted. Inviting the owner is rejected: ownership is implicit and
// never a row.
func Invite(
	log *slog.Logger,
	validate *validator.Validate,
	users UserProvider,
	projects ProjectProvider,
	store Store,
	publisher Publisher,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.collaborators.Invite"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		projectID, err := roles.ProjectID(r)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("invalid project id"))

			return
		}

		var req InviteRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Failed to decode request"))

			return
		}

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		project, err := projects.Project(ctx, projectID)
		if err != nil {
			if errors.Is(err, storage.ErrProjectNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.ErrorCode("project not found", resp.CodeNotFound))

				return
			}

			log.Error("failed to load project", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		invitee, err := users.UserByEmail(ctx, req.Email)
		if err != nil {
			if errors.Is(err, storage.ErrUserNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.ErrorCode("user not found", resp.CodeNotFound))

				return
			}

			log.Error("failed to load user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		if invitee.ID == project.OwnerID {
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, resp.Error("user already owns the project"))

			return
		}

		role := models.Role(req.Role)

		if err := store.SaveCollaboration(ctx, projectID, invitee.ID, role); err != nil {
			if errors.Is(err, storage.ErrCollaborationExists) {
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, resp.Error("collaboration already exists"))

				return
			}

			log.Error("failed to save collaboration", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		// Best effort: a broker failure never rolls the invite back.
		err = publisher.SendMessage(ctx, models.Message{
			Email:   invitee.Email,
			Project: project.Name,
			Role:    req.Role,
			Purpose: "collaboration_invite",
		})
		if err != nil {
			log.Warn("failed to publish invite notification", sl.Err(err))
		}

		log.Info("collaborator invited",
			slog.Int64("project_id", projectID),
			slog.Int64("user_id", invitee.ID),
		)

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, InviteResponse{
			Response: resp.OK(),
			Collaboration: models.Collaboration{
				ProjectID: projectID,
				UserID:    invitee.ID,
				Role:      role,
			},
		})
	}
}

func collaboratorID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid user id")
	}

	return id, nil
}
