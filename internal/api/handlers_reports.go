package api

import (
	"errors"
	"net/http"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
)

type projectSummaryRow struct {
	ProjectID  uuid.UUID `db:"project_id" json:"project_id"`
	Name       string    `db:"name" json:"name"`
	Todo       int       `db:"todo" json:"todo"`
	InProgress int       `db:"in_progress" json:"in_progress"`
	Done       int       `db:"done" json:"done"`
}

// handleReportSummary aggregates task counts per active project. The query
// runs over the raw pgx pool, so it is only available on postgres deployments.
func (a *API) handleReportSummary(w http.ResponseWriter, r *http.Request) {
	if a.pool == nil {
		respondError(w, http.StatusNotImplemented, errors.New("reports require a postgres deployment"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	const query = `
		SELECT p.id AS project_id,
		       p.name,
		       COUNT(t.id) FILTER (WHERE t.status = 'todo')        AS todo,
		       COUNT(t.id) FILTER (WHERE t.status = 'in_progress') AS in_progress,
		       COUNT(t.id) FILTER (WHERE t.status = 'done')        AS done
		FROM projects p
		LEFT JOIN tasks t ON t.project_id = p.id
		WHERE p.is_active
		GROUP BY p.id, p.name
		ORDER BY p.name`

	var rows []projectSummaryRow
	if err := pgxscan.Select(ctx, a.pool, &rows, query); err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"projects": rows})
}
