package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jdu211171/schedule-website-sub003/internal/models"
)

// VacationRepository reads branch vacation ranges.
type VacationRepository struct {
	db *sqlx.DB
}

// NewVacationRepository constructs the repository.
func NewVacationRepository(db *sqlx.DB) *VacationRepository {
	return &VacationRepository{db: db}
}

// ListByBranch returns every vacation of the branch.
func (r *VacationRepository) ListByBranch(ctx context.Context, branchID string) ([]models.VacationRecord, error) {
	const query = `SELECT id, branch_id, name, start_date, end_date, is_recurring
FROM vacations
WHERE branch_id = $1
ORDER BY start_date ASC`
	var records []models.VacationRecord
	if err := r.db.SelectContext(ctx, &records, query, branchID); err != nil {
		return nil, fmt.Errorf("list vacations for branch %s: %w", branchID, err)
	}
	return records, nil
}
