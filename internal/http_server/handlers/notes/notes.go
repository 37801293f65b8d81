package notes

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	resp "projectboard/internal/lib/api/response"
	sl "projectboard/internal/lib/logger"
	"projectboard/internal/middleware/authn"
	"projectboard/internal/middleware/roles"
	"projectboard/internal/models"
	"projectboard/internal/storage"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type CreateRequest struct {
	Body string `json:"body" validate:"required,min=1,max=10000"`
}

type NoteResponse struct {
	resp.Response
	Note models.Note `json:"data"`
}

type ListResponse struct {
	resp.Response
	Notes []models.Note `json:"data"`
}

type Store interface {
	SaveNote(ctx context.Context, projectID, authorID int64, body string) (models.Note, error)
	NotesForProject(ctx context.Context, projectID int64) ([]models.Note, error)
	DeleteNote(ctx context.Context, projectID, noteID int64) error
}

func Create(
	log *slog.Logger,
	validate *validator.Validate,
	store Store,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.notes.Create"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		identity, ok := authn.IdentityFromContext(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.ErrorCode("unauthorized", resp.CodeUnauthenticated))

			return
		}

		projectID, err := roles.ProjectID(r)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("invalid project id"))

			return
		}

		var req CreateRequest

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

		note, err := store.SaveNote(ctx, projectID, identity.UserID, req.Body)
		if err != nil {
			log.Error("failed to save note", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("note created", slog.Int64("note_id", note.ID))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, NoteResponse{
			Response: resp.OK(),
			Note:     note,
		})
	}
}

func List(
	log *slog.Logger,
	store Store,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.notes.List"

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

		notes, err := store.NotesForProject(ctx, projectID)
		if err != nil {
			log.Error("failed to list notes", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		if notes == nil {
			notes = []models.Note{}
		}

		render.JSON(w, r, ListResponse{
			Response: resp.OK(),
			Notes:    notes,
		})
	}
}

func Delete(
	log *slog.Logger,
	store Store,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.notes.Delete"

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

		id, err := noteID(r)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("invalid note id"))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := store.DeleteNote(ctx, projectID, id); err != nil {
			if errors.Is(err, storage.ErrNoteNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.ErrorCode("note not found", resp.CodeNotFound))

				return
			}

			log.Error("failed to delete note", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("note deleted", slog.Int64("note_id", id))

		render.JSON(w, r, resp.OK())
	}
}

func noteID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "noteID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid note id")
	}

	return id, nil
}
