package data

import (
	"time"

	"github.com/kamruzzaman103/library-management-server/internal/validator"
)

const ScopeCover = "cover"

// DailyLoanLimit is the number of books a single borrower may borrow per day.
const DailyLoanLimit int8 = 5

// Book defines a book model. TotalCopies is fixed at creation;
// AvailableCopies is owned by the lending ledger and never touched by
// catalog updates.
type Book struct {
	ID              int64     `json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	Category        string    `json:"category"`
	Description     string    `json:"description,omitempty"`
	Image           string    `json:"image,omitempty"`
	Rating          float64   `json:"rating,omitempty"`
	TotalCopies     int32     `json:"total_copies"`
	AvailableCopies int32     `json:"available_copies"`
	Version         int32     `json:"-"`
}

func ValidateBook(v *validator.Validator, book *Book) {
	v.Check(book.Title != "", "title", "must be provided")
	v.Check(len(book.Title) <= 500, "title", "must not be more than 500 bytes long")
	v.Check(book.Author != "", "author", "must be provided")
	v.Check(len(book.Author) <= 200, "author", "must not be more than 200 bytes long")
	v.Check(book.Category != "", "category", "must be provided")
	v.Check(len(book.Description) <= 2000, "description", "must not be more than 2000 bytes long")
	v.Check(book.Rating >= 0, "rating", "must not be negative")
	v.Check(book.Rating <= 5, "rating", "must not be more than 5")
	v.Check(book.TotalCopies >= 0, "total_copies", "must not be negative")
	v.Check(book.AvailableCopies >= 0, "available_copies", "must not be negative")
	v.Check(book.AvailableCopies <= book.TotalCopies, "available_copies", "must not exceed total copies")
}
