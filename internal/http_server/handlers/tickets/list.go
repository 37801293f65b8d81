package tickets

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	resp "projectboard/internal/lib/api/response"
	sl "projectboard/internal/lib/logger"
	"projectboard/internal/middleware/roles"
	"projectboard/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type ListResponse struct {
	resp.Response
	Tickets []models.Ticket `json:"data"`
}

type Lister interface {
	TicketsForProject(ctx context.Context, projectID int64) ([]models.Ticket, error)
}

func List(
	log *slog.Logger,
	lister Lister,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.tickets.List"

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

		tickets, err := lister.TicketsForProject(ctx, projectID)
		if err != nil {
			log.Error("failed to list tickets", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		if tickets == nil {
			tickets = []models.Ticket{}
		}

		render.JSON(w, r, ListResponse{
			Response: resp.OK(),
			Tickets:  tickets,
		})
	}
}
