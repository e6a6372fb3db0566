package repository

import (
	"context"
	"time"
)

type categories interface {
	GetAllCategories() ([]string, error)
}

// GetAllCategories retrieves the distinct list of categories across all books.
func (r *repository) GetAllCategories() ([]string, error) {
	query := `
		SELECT DISTINCT category
		FROM books
		ORDER BY category ASC`
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	categories := []string{}
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}
