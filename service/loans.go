package service

import (
	"errors"

	"github.com/kamruzzaman103/library-management-server/data"
	"github.com/kamruzzaman103/library-management-server/data/dto"
	"github.com/kamruzzaman103/library-management-server/internal/mailer"
	"github.com/kamruzzaman103/library-management-server/internal/policy"
	"github.com/kamruzzaman103/library-management-server/internal/validator"
	"github.com/kamruzzaman103/library-management-server/repository"
)

type loans interface {
	BorrowBook(requestBody dto.CreateLoanRequestBody) (*data.Loan, error)
	GetLoan(loanID int64) (*data.Loan, error)
	ListLoansForUser(userEmail string, filters data.Filters) ([]*data.Loan, data.Metadata, error)
	ReturnBook(loanID int64) error
}

// BorrowBook service lends one copy of a book to a user and records the
// loan. The policy check up front is advisory; the conditional decrement
// is the write-time guard that keeps two borrowers from taking the last
// copy, and the partial unique index on open loans keeps one borrower
// from holding two. If the loan insert fails after the decrement
// succeeded, the copy is put back; failing that too leaves the ledger
// inconsistent and is reported as ErrConsistencyFault.
func (s *service) BorrowBook(requestBody dto.CreateLoanRequestBody) (*data.Loan, error) {
	loan := &data.Loan{
		BookID:    requestBody.BookID,
		UserName:  requestBody.UserName,
		UserEmail: requestBody.UserEmail,
		DueDate:   requestBody.DueDate,
	}
	v := validator.New()
	if data.ValidateLoan(v, loan); !v.Valid() {
		return nil, s.failedValidation(v.Errors)
	}
	book, err := s.repo.GetBook(requestBody.BookID)
	if err != nil && !errors.Is(err, repository.ErrRecordNotFound) {
		return nil, err
	}
	openLoan, err := s.repo.GetOpenLoanForUser(requestBody.BookID, requestBody.UserEmail)
	if err != nil && !errors.Is(err, repository.ErrRecordNotFound) {
		return nil, err
	}
	decision := policy.CanBorrow(book, requestBody.UserEmail, openLoan)
	if !decision.Allowed {
		switch decision.Reason {
		case policy.ReasonNotFound:
			return nil, ErrRecordNotFound
		case policy.ReasonNoCopiesAvailable:
			return nil, ErrNoCopiesAvailable
		case policy.ReasonAlreadyBorrowed:
			return nil, ErrDuplicateLoan
		}
	}
	err = s.repo.DecrementAvailableCopies(book.ID)
	if err != nil {
		switch {
		// The guard rejected the write: another borrower took the last
		// copy between our read and this decrement.
		case errors.Is(err, repository.ErrEditConflict):
			return nil, ErrNoCopiesAvailable
		default:
			return nil, err
		}
	}
	loan.Title = book.Title
	loan.Image = book.Image
	loan.Category = book.Category
	loan.Status = data.LoanStatusOpen
	err = s.repo.CreateLoan(loan)
	if err != nil {
		// The copy is already off the shelf with no loan to account for
		// it. Put it back before reporting the failure.
		if restoreErr := s.repo.IncrementAvailableCopies(book.ID); restoreErr != nil {
			s.logger.PrintError(ErrConsistencyFault, map[string]string{
				"book_id":     int64String(book.ID),
				"user_email":  loan.UserEmail,
				"insert_err":  err.Error(),
				"restore_err": restoreErr.Error(),
			})
			return nil, ErrConsistencyFault
		}
		switch {
		case errors.Is(err, repository.ErrDuplicateRecord):
			return nil, ErrDuplicateLoan
		default:
			return nil, err
		}
	}
	// Send the borrow confirmation in the background so the request
	// doesn't wait on SMTP.
	s.background(func() {
		m := mailer.New(s.config.Smtp.Host, s.config.Smtp.Port, s.config.Smtp.Username, s.config.Smtp.Password, s.config.Smtp.Sender)
		emailData := map[string]interface{}{
			"userName": loan.UserName,
			"title":    loan.Title,
			"dueDate":  loan.DueDate.Format("2 January 2006"),
		}
		err := m.Send(loan.UserEmail, "loan_confirmation.tmpl", emailData)
		if err != nil {
			s.logger.PrintError(err, map[string]string{
				"user_email": loan.UserEmail,
			})
		}
	})
	return loan, nil
}

// GetLoan service retrieves a loan by its ID, whether open or returned.
func (s *service) GetLoan(loanID int64) (*data.Loan, error) {
	loan, err := s.repo.GetLoan(loanID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRecordNotFound):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return loan, nil
}

// ListLoansForUser service retrieves a paginated list of a user's
// currently open loans.
func (s *service) ListLoansForUser(userEmail string, filters data.Filters) ([]*data.Loan, data.Metadata, error) {
	v := validator.New()
	v.Check(userEmail != "", "email", "must be provided")
	v.Check(validator.Matches(userEmail, validator.EmailRX), "email", "must be a valid email address")
	if data.ValidateFilters(v, filters); !v.Valid() {
		return nil, data.Metadata{}, s.failedValidation(v.Errors)
	}
	loans, metadata, err := s.repo.GetAllLoansForUser(userEmail, filters)
	if err != nil {
		return nil, data.Metadata{}, err
	}
	return loans, metadata, nil
}

// ReturnBook service closes an open loan and puts the copy back on the
// shelf. The two writes happen in one repository transaction, so a
// second return of the same loan reports not found and the copy count
// moves exactly once.
func (s *service) ReturnBook(loanID int64) error {
	loan, err := s.repo.GetLoan(loanID)
	if err != nil && !errors.Is(err, repository.ErrRecordNotFound) {
		return err
	}
	decision := policy.CanReturn(loan)
	if !decision.Allowed {
		return ErrRecordNotFound
	}
	err = s.repo.ReturnLoan(loanID)
	if err != nil {
		switch {
		// Lost a race with a concurrent return of the same loan.
		case errors.Is(err, repository.ErrRecordNotFound):
			return ErrRecordNotFound
		// The increment would have pushed available copies past the
		// total, which means the ledger no longer matches the open-loan
		// count. The transaction was rolled back; nothing moved.
		case errors.Is(err, repository.ErrEditConflict):
			s.logger.PrintError(ErrConsistencyFault, map[string]string{
				"loan_id": int64String(loanID),
				"book_id": int64String(loan.BookID),
				"cause":   "available copies already at total on return",
			})
			return ErrConsistencyFault
		default:
			return err
		}
	}
	return nil
}
