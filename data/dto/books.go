package dto

import "github.com/kamruzzaman103/library-management-server/data"

// QsListBooks defines the query strings used for listing books.
type QsListBooks struct {
	Search   string
	Category string
	Filters  data.Filters
}

// CreateBookRequestBody defines the request body for CreateBook service.
type CreateBookRequestBody struct {
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
	Rating      float64 `json:"rating"`
	TotalCopies int32   `json:"total_copies"`
}

// UpdateBookRequestBody defines the request body for UpdateBook service. The fields are set
// to a pointer type to allow partial updates based on whether the value is set to nil.
// Copy counts are deliberately absent: total copies are fixed at creation and
// available copies belong to the lending ledger.
type UpdateBookRequestBody struct {
	Title       *string  `json:"title"`
	Author      *string  `json:"author"`
	Category    *string  `json:"category"`
	Description *string  `json:"description"`
	Rating      *float64 `json:"rating"`
}
