package ingest

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	CreateRun(ctx context.Context, run *Run) (string, error)
	UpdateRun(ctx context.Context, run *Run) error
}

type PostgresRepo struct {
	db *pgxpool.Pool
}

func NewPostgresRepo(db *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) CreateRun(ctx context.Context, run *Run) (string, error) {
	const sql = `
		INSERT INTO warm_runs (config_pages, config_details, status, started_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	var id string
	err := r.db.QueryRow(ctx, sql, run.ConfigPages, run.ConfigDetails, run.Status, run.StartedAt).Scan(&id)
	return id, err
}

func (r *PostgresRepo) UpdateRun(ctx context.Context, run *Run) error {
	const sql = `
		UPDATE warm_runs SET
			finished_at = $1,
			status = $2,
			pages_fetched = $3,
			entries_fetched = $4,
			details_fetched = $5,
			details_failed = $6,
			cache_pruned = $7,
			cache_rows = $8,
			error = $9
		WHERE id = $10`

	_, err := r.db.Exec(ctx, sql, run.FinishedAt, run.Status, run.PagesFetched, run.EntriesFetched,
		run.DetailsFetched, run.DetailsFailed, run.CachePruned, run.CacheRows, run.Error, run.ID)
	return err
}
