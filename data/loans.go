package data

import (
	"time"

	"github.com/kamruzzaman103/library-management-server/internal/validator"
)

// Loan statuses. A loan is never deleted on return; it is marked
// returned so the borrowing history survives as an audit trail.
const (
	LoanStatusOpen     = "open"
	LoanStatusReturned = "returned"
)

// Loan defines a loan model. Title, Image and Category are snapshots of
// the book at borrow time, denormalized for display and never re-synced.
type Loan struct {
	ID         int64      `json:"id"`
	BookID     int64      `json:"book_id"`
	UserName   string     `json:"user_name"`
	UserEmail  string     `json:"user_email"`
	Title      string     `json:"title"`
	Image      string     `json:"image,omitempty"`
	Category   string     `json:"category,omitempty"`
	DueDate    time.Time  `json:"due_date"`
	BorrowedAt time.Time  `json:"borrowed_at"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
	Status     string     `json:"status"`
}

func ValidateLoan(v *validator.Validator, loan *Loan) {
	v.Check(loan.BookID >= 1, "book_id", "must be provided")
	v.Check(loan.UserName != "", "user_name", "must be provided")
	v.Check(len(loan.UserName) <= 200, "user_name", "must not be more than 200 bytes long")
	v.Check(loan.UserEmail != "", "user_email", "must be provided")
	v.Check(validator.Matches(loan.UserEmail, validator.EmailRX), "user_email", "must be a valid email address")
	v.Check(!loan.DueDate.IsZero(), "due_date", "must be provided")
	v.Check(loan.DueDate.After(time.Now()), "due_date", "must be in the future")
}
