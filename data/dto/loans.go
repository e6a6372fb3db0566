package dto

import (
	"time"

	"github.com/kamruzzaman103/library-management-server/data"
)

// QsListLoans defines the query strings used for listing a borrower's loans.
type QsListLoans struct {
	Email   string
	Filters data.Filters
}

// CreateLoanRequestBody defines the request body for BorrowBook service.
type CreateLoanRequestBody struct {
	BookID    int64     `json:"book_id"`
	UserName  string    `json:"user_name"`
	UserEmail string    `json:"user_email"`
	DueDate   time.Time `json:"due_date"`
}
