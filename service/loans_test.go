package service

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/kamruzzaman103/library-management-server/config"
	"github.com/kamruzzaman103/library-management-server/data"
	"github.com/kamruzzaman103/library-management-server/data/dto"
	"github.com/kamruzzaman103/library-management-server/internal/jsonlog"
)

func newTestService(repo *mockRepo) *service {
	var cfg config.Config
	var wg sync.WaitGroup
	logger := jsonlog.New(io.Discard, jsonlog.LevelFatal)
	return New(cfg, &wg, logger, repo)
}

func borrowBody(bookID int64, name, email string) dto.CreateLoanRequestBody {
	return dto.CreateLoanRequestBody{
		BookID:    bookID,
		UserName:  name,
		UserEmail: email,
		DueDate:   time.Now().Add(14 * 24 * time.Hour),
	}
}

// checkLedger verifies that available copies equal total copies minus the
// count of open loans for the book. Valid only at quiescent points.
func checkLedger(t *testing.T, repo *mockRepo, bookID int64, total int32) {
	t.Helper()
	available := repo.availableCopies(bookID)
	open := int32(repo.openLoanCount(bookID))
	if available != total-open {
		t.Fatalf("ledger out of balance: available = %d, total = %d, open loans = %d", available, total, open)
	}
	if available < 0 || available > total {
		t.Fatalf("available copies %d outside [0, %d]", available, total)
	}
}

func TestBorrowBook(t *testing.T) {
	t.Run("creates a loan and takes a copy off the shelf", func(t *testing.T) {
		repo := newMockRepo()
		book := repo.addBook("Dune", 3, 3)
		s := newTestService(repo)
		loan, err := s.BorrowBook(borrowBody(book.ID, "Alice", "alice@example.com"))
		if err != nil {
			t.Fatalf("borrow: %v", err)
		}
		if loan.ID == 0 || loan.Status != data.LoanStatusOpen {
			t.Fatalf("unexpected loan: %+v", loan)
		}
		if loan.Title != "Dune" {
			t.Fatalf("snapshot title = %q, want %q", loan.Title, "Dune")
		}
		if got := repo.availableCopies(book.ID); got != 2 {
			t.Fatalf("available copies = %d, want 2", got)
		}
		checkLedger(t, repo, book.ID, 3)
	})

	t.Run("rejects an unknown book", func(t *testing.T) {
		repo := newMockRepo()
		s := newTestService(repo)
		_, err := s.BorrowBook(borrowBody(99, "Alice", "alice@example.com"))
		if !errors.Is(err, ErrRecordNotFound) {
			t.Fatalf("err = %v, want ErrRecordNotFound", err)
		}
	})

	t.Run("rejects a book with no available copies", func(t *testing.T) {
		repo := newMockRepo()
		book := repo.addBook("SICP", 1, 0)
		s := newTestService(repo)
		_, err := s.BorrowBook(borrowBody(book.ID, "Bob", "bob@example.com"))
		if !errors.Is(err, ErrNoCopiesAvailable) {
			t.Fatalf("err = %v, want ErrNoCopiesAvailable", err)
		}
		if repo.openLoanCount(book.ID) != 0 {
			t.Fatal("loan record created for exhausted book")
		}
	})

	t.Run("rejects a second loan of the same book by the same borrower", func(t *testing.T) {
		repo := newMockRepo()
		book := repo.addBook("Dune", 3, 3)
		s := newTestService(repo)
		if _, err := s.BorrowBook(borrowBody(book.ID, "Alice", "alice@example.com")); err != nil {
			t.Fatalf("first borrow: %v", err)
		}
		_, err := s.BorrowBook(borrowBody(book.ID, "Alice", "alice@example.com"))
		if !errors.Is(err, ErrDuplicateLoan) {
			t.Fatalf("err = %v, want ErrDuplicateLoan", err)
		}
		if got := repo.availableCopies(book.ID); got != 2 {
			t.Fatalf("available copies = %d, want 2", got)
		}
	})

	t.Run("rejects an invalid request body", func(t *testing.T) {
		repo := newMockRepo()
		book := repo.addBook("Dune", 3, 3)
		s := newTestService(repo)
		body := borrowBody(book.ID, "Alice", "not-an-email")
		_, err := s.BorrowBook(body)
		if !errors.Is(err, ErrFailedValidation) {
			t.Fatalf("err = %v, want ErrFailedValidation", err)
		}
		body = borrowBody(book.ID, "Alice", "alice@example.com")
		body.DueDate = time.Now().Add(-time.Hour)
		_, err = s.BorrowBook(body)
		if !errors.Is(err, ErrFailedValidation) {
			t.Fatalf("err = %v, want ErrFailedValidation", err)
		}
		if got := repo.availableCopies(book.ID); got != 3 {
			t.Fatalf("available copies = %d, want 3", got)
		}
	})

	t.Run("restores the copy when the loan insert fails", func(t *testing.T) {
		repo := newMockRepo()
		book := repo.addBook("Dune", 3, 3)
		repo.createLoanErr = errInsertFailed
		s := newTestService(repo)
		_, err := s.BorrowBook(borrowBody(book.ID, "Alice", "alice@example.com"))
		if !errors.Is(err, errInsertFailed) {
			t.Fatalf("err = %v, want errInsertFailed", err)
		}
		if got := repo.availableCopies(book.ID); got != 3 {
			t.Fatalf("available copies = %d, want 3 after compensation", got)
		}
	})

	t.Run("reports a consistency fault when compensation also fails", func(t *testing.T) {
		repo := newMockRepo()
		book := repo.addBook("Dune", 3, 3)
		repo.createLoanErr = errInsertFailed
		repo.incrementErr = errors.New("connection lost")
		s := newTestService(repo)
		_, err := s.BorrowBook(borrowBody(book.ID, "Alice", "alice@example.com"))
		if !errors.Is(err, ErrConsistencyFault) {
			t.Fatalf("err = %v, want ErrConsistencyFault", err)
		}
	})
}

func TestReturnBook(t *testing.T) {
	t.Run("closes the loan and puts the copy back", func(t *testing.T) {
		repo := newMockRepo()
		book := repo.addBook("Dune", 3, 3)
		s := newTestService(repo)
		loan, err := s.BorrowBook(borrowBody(book.ID, "Alice", "alice@example.com"))
		if err != nil {
			t.Fatalf("borrow: %v", err)
		}
		if err := s.ReturnBook(loan.ID); err != nil {
			t.Fatalf("return: %v", err)
		}
		if got := repo.availableCopies(book.ID); got != 3 {
			t.Fatalf("available copies = %d, want 3", got)
		}
		returned, err := s.GetLoan(loan.ID)
		if err != nil {
			t.Fatalf("get loan: %v", err)
		}
		if returned.Status != data.LoanStatusReturned || returned.ReturnedAt == nil {
			t.Fatalf("loan not marked returned: %+v", returned)
		}
		checkLedger(t, repo, book.ID, 3)
	})

	t.Run("returning twice succeeds once and increments once", func(t *testing.T) {
		repo := newMockRepo()
		book := repo.addBook("Dune", 3, 3)
		s := newTestService(repo)
		loan, err := s.BorrowBook(borrowBody(book.ID, "Alice", "alice@example.com"))
		if err != nil {
			t.Fatalf("borrow: %v", err)
		}
		if err := s.ReturnBook(loan.ID); err != nil {
			t.Fatalf("first return: %v", err)
		}
		err = s.ReturnBook(loan.ID)
		if !errors.Is(err, ErrRecordNotFound) {
			t.Fatalf("second return err = %v, want ErrRecordNotFound", err)
		}
		if got := repo.availableCopies(book.ID); got != 3 {
			t.Fatalf("available copies = %d, want 3", got)
		}
	})

	t.Run("rejects an unknown loan", func(t *testing.T) {
		repo := newMockRepo()
		s := newTestService(repo)
		err := s.ReturnBook(42)
		if !errors.Is(err, ErrRecordNotFound) {
			t.Fatalf("err = %v, want ErrRecordNotFound", err)
		}
	})

	t.Run("reports a consistency fault when the shelf is already full", func(t *testing.T) {
		repo := newMockRepo()
		book := repo.addBook("Dune", 3, 3)
		s := newTestService(repo)
		loan, err := s.BorrowBook(borrowBody(book.ID, "Alice", "alice@example.com"))
		if err != nil {
			t.Fatalf("borrow: %v", err)
		}
		// Corrupt the counter behind the ledger's back.
		repo.mu.Lock()
		repo.books[book.ID].AvailableCopies = book.TotalCopies
		repo.mu.Unlock()
		err = s.ReturnBook(loan.ID)
		if !errors.Is(err, ErrConsistencyFault) {
			t.Fatalf("err = %v, want ErrConsistencyFault", err)
		}
	})
}

func TestBorrowBookConcurrent(t *testing.T) {
	t.Run("last copy goes to exactly one of two borrowers", func(t *testing.T) {
		repo := newMockRepo()
		book := repo.addBook("Dune", 1, 1)
		s := newTestService(repo)
		emails := []string{"alice@example.com", "bob@example.com"}
		results := make([]error, len(emails))
		var wg sync.WaitGroup
		for i, email := range emails {
			wg.Add(1)
			go func(i int, email string) {
				defer wg.Done()
				_, err := s.BorrowBook(borrowBody(book.ID, "Borrower", email))
				results[i] = err
			}(i, email)
		}
		wg.Wait()
		successes, exhausted := 0, 0
		for _, err := range results {
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrNoCopiesAvailable):
				exhausted++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if successes != 1 || exhausted != 1 {
			t.Fatalf("successes = %d, exhausted = %d, want 1 and 1", successes, exhausted)
		}
		if got := repo.availableCopies(book.ID); got != 0 {
			t.Fatalf("available copies = %d, want 0", got)
		}
		checkLedger(t, repo, book.ID, 1)
	})

	t.Run("same borrower twice concurrently succeeds at most once", func(t *testing.T) {
		repo := newMockRepo()
		book := repo.addBook("Dune", 2, 2)
		s := newTestService(repo)
		results := make([]error, 2)
		var wg sync.WaitGroup
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := s.BorrowBook(borrowBody(book.ID, "Alice", "alice@example.com"))
				results[i] = err
			}(i)
		}
		wg.Wait()
		successes := 0
		for _, err := range results {
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrDuplicateLoan):
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if successes > 1 {
			t.Fatalf("successes = %d, want at most 1", successes)
		}
		checkLedger(t, repo, book.ID, 2)
	})
}

func TestLendingScenarios(t *testing.T) {
	t.Run("borrow, duplicate borrow, return", func(t *testing.T) {
		repo := newMockRepo()
		book := repo.addBook("Dune", 3, 3)
		s := newTestService(repo)
		loan, err := s.BorrowBook(borrowBody(book.ID, "Alice", "alice@example.com"))
		if err != nil {
			t.Fatalf("borrow: %v", err)
		}
		if got := repo.availableCopies(book.ID); got != 2 {
			t.Fatalf("available copies = %d, want 2", got)
		}
		if repo.openLoanCount(book.ID) != 1 {
			t.Fatalf("open loans = %d, want 1", repo.openLoanCount(book.ID))
		}
		_, err = s.BorrowBook(borrowBody(book.ID, "Alice", "alice@example.com"))
		if !errors.Is(err, ErrDuplicateLoan) {
			t.Fatalf("err = %v, want ErrDuplicateLoan", err)
		}
		if got := repo.availableCopies(book.ID); got != 2 {
			t.Fatalf("available copies = %d, want 2 after denied borrow", got)
		}
		if err := s.ReturnBook(loan.ID); err != nil {
			t.Fatalf("return: %v", err)
		}
		if got := repo.availableCopies(book.ID); got != 3 {
			t.Fatalf("available copies = %d, want 3", got)
		}
		if repo.openLoanCount(book.ID) != 0 {
			t.Fatalf("open loans = %d, want 0", repo.openLoanCount(book.ID))
		}
	})

	t.Run("borrowing an exhausted book leaves no trace", func(t *testing.T) {
		repo := newMockRepo()
		book := repo.addBook("SICP", 1, 0)
		s := newTestService(repo)
		_, err := s.BorrowBook(borrowBody(book.ID, "Bob", "bob@example.com"))
		if !errors.Is(err, ErrNoCopiesAvailable) {
			t.Fatalf("err = %v, want ErrNoCopiesAvailable", err)
		}
		if repo.openLoanCount(book.ID) != 0 {
			t.Fatal("loan record created for exhausted book")
		}
		if got := repo.availableCopies(book.ID); got != 0 {
			t.Fatalf("available copies = %d, want 0", got)
		}
	})
}

func TestListLoansForUser(t *testing.T) {
	repo := newMockRepo()
	first := repo.addBook("Dune", 2, 2)
	second := repo.addBook("SICP", 1, 1)
	s := newTestService(repo)
	if _, err := s.BorrowBook(borrowBody(first.ID, "Alice", "alice@example.com")); err != nil {
		t.Fatalf("borrow: %v", err)
	}
	loan, err := s.BorrowBook(borrowBody(second.ID, "Alice", "alice@example.com"))
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}
	if err := s.ReturnBook(loan.ID); err != nil {
		t.Fatalf("return: %v", err)
	}
	filters := data.Filters{Page: 1, PageSize: 10, Sort: "-borrowed_at", SortSafeList: []string{"-borrowed_at"}}
	loans, _, err := s.ListLoansForUser("alice@example.com", filters)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(loans) != 1 {
		t.Fatalf("open loans = %d, want 1 (returned loans excluded)", len(loans))
	}
	if _, _, err := s.ListLoansForUser("", filters); !errors.Is(err, ErrFailedValidation) {
		t.Fatalf("err = %v, want ErrFailedValidation for missing email", err)
	}
}
