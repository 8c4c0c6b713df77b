package repos

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	m "sa.service/data/models"
	q "sa.service/data/queries"
)

// Record writes one analysis run to the journal.
func (pg *Postgres) Record(ctx context.Context, run m.AnalysisRun) error {
	sql := q.Get(q.QueryHelper.Insert.AnalysisRun)

	tickers := run.Tickers
	if tickers == nil {
		tickers = []string{}
	}

	args := pgx.NamedArgs{
		"id":          run.Id,
		"kind":        run.Kind,
		"tickers":     tickers,
		"provider":    run.Provider,
		"outcome":     run.Outcome,
		"message":     run.Message,
		"duration_ms": run.DurationMs,
		"created_at":  run.CreatedAt,
	}

	if _, err := pg.db.Exec(ctx, sql, args); err != nil {
		return fmt.Errorf("error inserting analysis run %s: %w", run.Id, err)
	}

	return nil
}

// GetRecentAnalysisRuns returns the newest runs first, an empty kind matches every kind.
func (pg *Postgres) GetRecentAnalysisRuns(ctx context.Context, kind string, limit int) ([]*m.AnalysisRun, error) {
	sql := q.Get(q.QueryHelper.Select.RecentAnalysisRuns)
	args := pgx.NamedArgs{
		"kind":  kind,
		"limit": limit,
	}

	res, err := Query[m.AnalysisRun](ctx, pg, sql, args)
	if err != nil {
		return nil, fmt.Errorf("unable to query recent analysis runs: %w", err)
	}

	return res, nil
}

func (pg *Postgres) DeleteAnalysisRun(ctx context.Context, id uuid.UUID) error {
	sql := q.Get(q.QueryHelper.Delete.AnalysisRunById)
	args := pgx.NamedArgs{
		"id": id,
	}

	if _, err := pg.db.Exec(ctx, sql, args); err != nil {
		return fmt.Errorf("error deleting analysis run %s: %w", id, err)
	}

	return nil
}
