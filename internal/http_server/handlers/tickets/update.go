package tickets

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

type UpdateRequest struct {
	Title      string `json:"title" validate:"required,min=1,max=300"`
	Body       string `json:"body" validate:"max=10000"`
	Status     string `json:"status" validate:"required,oneof=open in_progress done"`
	AssigneeID *int64 `json:"assignee_id"`
}

type Updater interface {
	UpdateTicket(ctx context.Context, t models.Ticket) (models.Ticket, error)
}

func Update(
	log *slog.Logger,
	validate *validator.Validate,
	updater Updater,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.tickets.Update"

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

		id, err := ticketID(r)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("invalid ticket id"))

			return
		}

		var req UpdateRequest

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

		ticket, err := updater.UpdateTicket(ctx, models.Ticket{
			ID:         id,
			ProjectID:  projectID,
			AssigneeID: req.AssigneeID,
			Title:      req.Title,
			Body:       req.Body,
			Status:     models.TicketStatus(req.Status),
		})
		if err != nil {
			if errors.Is(err, storage.ErrTicketNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.ErrorCode("ticket not found", resp.CodeNotFound))

				return
			}

			log.Error("failed to update ticket", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("ticket updated", slog.Int64("ticket_id", ticket.ID))

		render.JSON(w, r, TicketResponse{
			Response: resp.OK(),
			Ticket:   ticket,
		})
	}
}
