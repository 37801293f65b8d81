package tickets

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

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type CreateRequest struct {
	Title      string `json:"title" validate:"required,min=1,max=300"`
	Body       string `json:"body" validate:"max=10000"`
	AssigneeID *int64 `json:"assignee_id"`
}

type TicketResponse struct {
	resp.Response
	Ticket models.Ticket `json:"data"`
}

type Saver interface {
	SaveTicket(ctx context.Context, t models.Ticket) (models.Ticket, error)
}

func Create(
	log *slog.Logger,
	validate *validator.Validate,
	saver Saver,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.tickets.Create"

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

		ticket, err := saver.SaveTicket(ctx, models.Ticket{
			ProjectID:  projectID,
			AuthorID:   identity.UserID,
			AssigneeID: req.AssigneeID,
			Title:      req.Title,
			Body:       req.Body,
			Status:     models.TicketOpen,
		})
		if err != nil {
			log.Error("failed to save ticket", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("ticket created", slog.Int64("ticket_id", ticket.ID))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, TicketResponse{
			Response: resp.OK(),
			Ticket:   ticket,
		})
	}
}

func ticketID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "ticketID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid ticket id")
	}

	return id, nil
}
