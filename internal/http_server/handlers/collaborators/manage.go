package collaborators

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	resp "projectboard/internal/lib/api/response"
	sl "projectboard/internal/lib/logger"
	"projectboard/internal/middleware/roles"
	"projectboard/internal/models"
	"projectboard/internal/storage"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type ListResponse struct {
	resp.Response
	Collaborators []models.Collaboration `json:"data"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=editor viewer"`
}

func List(
	log *slog.Logger,
	store Store,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.collaborators.List"

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

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		collabs, err := store.CollaboratorsForProject(ctx, projectID)
		if err != nil {
			log.Error("failed to list collaborators", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		if collabs == nil {
			collabs = []models.Collaboration{}
		}

		render.JSON(w, r, ListResponse{
			Response:      resp.OK(),
			Collaborators: collabs,
		})
	}
}

func UpdateRole(
	log *slog.Logger,
	validate *validator.Validate,
	store Store,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.collaborators.UpdateRole"

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

		userID, err := collaboratorID(r)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("invalid user id"))

			return
		}

		var req UpdateRoleRequest

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

		if err := store.UpdateCollaborationRole(ctx, projectID, userID, models.Role(req.Role)); err != nil {
			if errors.Is(err, storage.ErrCollaborationMissing) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.ErrorCode("collaboration not found", resp.CodeNotFound))

				return
			}

			log.Error("failed to update collaboration role", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("collaborator role updated",
			slog.Int64("project_id", projectID),
			slog.Int64("user_id", userID),
			slog.String("role", req.Role),
		)

		render.JSON(w, r, resp.OK())
	}
}

func Remove(
	log *slog.Logger,
	store Store,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.collaborators.Remove"

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

		userID, err := collaboratorID(r)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("invalid user id"))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := store.DeleteCollaboration(ctx, projectID, userID); err != nil {
			if errors.Is(err, storage.ErrCollaborationMissing) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.ErrorCode("collaboration not found", resp.CodeNotFound))

				return
			}

			log.Error("failed to remove collaborator", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("collaborator removed",
			slog.Int64("project_id", projectID),
			slog.Int64("user_id", userID),
		)

		render.JSON(w, r, resp.OK())
	}
}
