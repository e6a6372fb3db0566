package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/kamruzzaman103/library-management-server/data"
)

type loans interface {
	CreateLoan(loan *data.Loan) error
	GetLoan(loanID int64) (*data.Loan, error)
	GetOpenLoanForUser(bookID int64, userEmail string) (*data.Loan, error)
	GetAllLoansForUser(userEmail string, filters data.Filters) ([]*data.Loan, data.Metadata, error)
	DecrementAvailableCopies(bookID int64) error
	IncrementAvailableCopies(bookID int64) error
	ReturnLoan(loanID int64) error
}

// CreateLoan creates a new open loan record. The loans_open_book_user_idx
// partial unique index guarantees at most one open loan per
// (book_id, user_email) pair, so a concurrent duplicate borrow loses here
// even when both requests passed the application-level check.
func (r *repository) CreateLoan(loan *data.Loan) error {
	query := `
		INSERT INTO loans (book_id, user_name, user_email, title, image, category, due_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, borrowed_at`
	args := []interface{}{loan.BookID, loan.UserName, loan.UserEmail, loan.Title, loan.Image, loan.Category, loan.DueDate, data.LoanStatusOpen}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&loan.ID, &loan.BorrowedAt)
	if err != nil {
		switch {
		case err.Error() == `pq: duplicate key value violates unique constraint "loans_open_book_user_idx"`:
			return ErrDuplicateRecord
		default:
			return err
		}
	}
	loan.Status = data.LoanStatusOpen
	return nil
}

// GetLoan retrieves a loan record by its ID regardless of status.
func (r *repository) GetLoan(loanID int64) (*data.Loan, error) {
	if loanID < 1 {
		return nil, ErrRecordNotFound
	}
	query := `
		SELECT id, book_id, user_name, user_email, title, image, category, due_date, borrowed_at, returned_at, status
		FROM loans
		WHERE id = $1`
	var loan data.Loan
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	err := r.db.QueryRowContext(ctx, query, loanID).Scan(
		&loan.ID,
		&loan.BookID,
		&loan.UserName,
		&loan.UserEmail,
		&loan.Title,
		&loan.Image,
		&loan.Category,
		&loan.DueDate,
		&loan.BorrowedAt,
		&loan.ReturnedAt,
		&loan.Status,
	)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return &loan, nil
}

// GetOpenLoanForUser retrieves the open loan a user holds on a book, if any.
func (r *repository) GetOpenLoanForUser(bookID int64, userEmail string) (*data.Loan, error) {
	query := `
		SELECT id, book_id, user_name, user_email, title, image, category, due_date, borrowed_at, returned_at, status
		FROM loans
		WHERE book_id = $1 AND user_email = $2 AND status = $3`
	var loan data.Loan
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	err := r.db.QueryRowContext(ctx, query, bookID, userEmail, data.LoanStatusOpen).Scan(
		&loan.ID,
		&loan.BookID,
		&loan.UserName,
		&loan.UserEmail,
		&loan.Title,
		&loan.Image,
		&loan.Category,
		&loan.DueDate,
		&loan.BorrowedAt,
		&loan.ReturnedAt,
		&loan.Status,
	)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return &loan, nil
}

// GetAllLoansForUser retrieves a paginated list of a user's open loans,
// newest first.
func (r *repository) GetAllLoansForUser(userEmail string, filters data.Filters) ([]*data.Loan, data.Metadata, error) {
	query := `
		SELECT count(*) OVER(), id, book_id, user_name, user_email, title, image, category, due_date, borrowed_at, returned_at, status
		FROM loans
		WHERE user_email = $1 AND status = $2
		ORDER BY borrowed_at DESC, id ASC
		LIMIT $3 OFFSET $4`
	args := []interface{}{userEmail, data.LoanStatusOpen, filters.Limit(), filters.Offset()}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, data.Metadata{}, err
	}
	defer rows.Close()
	totalRecords := 0
	loans := []*data.Loan{}
	for rows.Next() {
		var loan data.Loan
		err := rows.Scan(
			&totalRecords,
			&loan.ID,
			&loan.BookID,
			&loan.UserName,
			&loan.UserEmail,
			&loan.Title,
			&loan.Image,
			&loan.Category,
			&loan.DueDate,
			&loan.BorrowedAt,
			&loan.ReturnedAt,
			&loan.Status,
		)
		if err != nil {
			return nil, data.Metadata{}, err
		}
		loans = append(loans, &loan)
	}
	if err = rows.Err(); err != nil {
		return nil, data.Metadata{}, err
	}
	metadata := data.CalculateMetadata(totalRecords, filters.Page, filters.PageSize)
	return loans, metadata, nil
}

// DecrementAvailableCopies takes one copy of a book off the shelf. The
// guard is applied at write time, so two concurrent borrows of the last
// copy cannot both succeed no matter what each of them read beforehand.
// Returns ErrEditConflict when no copy was available at write time.
func (r *repository) DecrementAvailableCopies(bookID int64) error {
	query := `
		UPDATE books
		SET available_copies = available_copies - 1, version = version + 1
		WHERE id = $1 AND available_copies > 0`
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	result, err := r.db.ExecContext(ctx, query, bookID)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrEditConflict
	}
	return nil
}

// IncrementAvailableCopies puts one copy of a book back on the shelf,
// capped at total_copies. The cap cannot be hit under correct operation;
// when it is, the caller is looking at a ledger inconsistency.
func (r *repository) IncrementAvailableCopies(bookID int64) error {
	query := `
		UPDATE books
		SET available_copies = available_copies + 1, version = version + 1
		WHERE id = $1 AND available_copies < total_copies`
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	result, err := r.db.ExecContext(ctx, query, bookID)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrEditConflict
	}
	return nil
}

// ReturnLoan marks an open loan returned and restores the book's available
// copy inside a single transaction, so a reader never observes one half of
// the pair without the other. The status guard means a concurrent double
// return updates zero rows and reports ErrRecordNotFound.
func (r *repository) ReturnLoan(loanID int64) error {
	if loanID < 1 {
		return ErrRecordNotFound
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	query := `
		UPDATE loans
		SET status = $1, returned_at = now()
		WHERE id = $2 AND status = $3
		RETURNING book_id`
	var bookID int64
	err = tx.QueryRowContext(ctx, query, data.LoanStatusReturned, loanID, data.LoanStatusOpen).Scan(&bookID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrRecordNotFound
		default:
			return err
		}
	}
	query = `
		UPDATE books
		SET available_copies = available_copies + 1, version = version + 1
		WHERE id = $1 AND available_copies < total_copies`
	result, err := tx.ExecContext(ctx, query, bookID)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrEditConflict
	}
	return tx.Commit()
}
