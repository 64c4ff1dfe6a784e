package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/atinyakov/GenomePortal/internal/models"
)

// PostgresAnalysisRepository keeps a history of analysis uploads.
type PostgresAnalysisRepository struct {
	DB *sql.DB
}

// NewPostgresAnalysisRepository creates a repository over db.
func NewPostgresAnalysisRepository(db *sql.DB) *PostgresAnalysisRepository {
	return &PostgresAnalysisRepository{DB: db}
}

// RecordAnalysis stores an uploaded dataset and the result computed from
// it, in one transaction.
func (r *PostgresAnalysisRepository) RecordAnalysis(ctx context.Context, run models.AnalysisRun) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var datasetID int64
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO datasets (filename, data_type, uploaded_by) VALUES ($1, $2, $3) RETURNING id
	`, run.Filename, string(run.Kind), run.UserID).Scan(&datasetID); err != nil {
		return fmt.Errorf("insert dataset: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO analysis_results (dataset_id, analysis_type, results) VALUES ($1, $2, $3)
	`, datasetID, string(run.Kind), run.Results); err != nil {
		return fmt.Errorf("insert result: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
