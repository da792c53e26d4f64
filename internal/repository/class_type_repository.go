package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ClassTypeRepository answers questions about the class type hierarchy.
type ClassTypeRepository struct {
	db *sqlx.DB
}

// NewClassTypeRepository constructs the repository.
func NewClassTypeRepository(db *sqlx.DB) *ClassTypeRepository {
	return &ClassTypeRepository{db: db}
}

// IsSpecial reports whether the class type or any of its ancestors is flagged special.
func (r *ClassTypeRepository) IsSpecial(ctx context.Context, classTypeID string) (bool, error) {
	const query = `WITH RECURSIVE chain AS (
	SELECT class_type_id, parent_id, is_special, 1 AS depth FROM class_types WHERE class_type_id = $1
	UNION ALL
	SELECT ct.class_type_id, ct.parent_id, ct.is_special, chain.depth + 1
	FROM class_types ct
	JOIN chain ON ct.class_type_id = chain.parent_id
	WHERE chain.depth < 32
)
SELECT COALESCE(BOOL_OR(is_special), FALSE) FROM chain`
	var special bool
	if err := r.db.GetContext(ctx, &special, query, classTypeID); err != nil {
		return false, fmt.Errorf("check class type %s: %w", classTypeID, err)
	}
	return special, nil
}
