package service

import (
	"errors"
	"sync"
	"time"

	"github.com/kamruzzaman103/library-management-server/data"
	"github.com/kamruzzaman103/library-management-server/repository"
)

// mockRepo is an in-memory stand-in for the Postgres repository. All
// operations take the mutex, so the conditional counter updates and the
// open-loan uniqueness check behave like their single-statement SQL
// counterparts under concurrent use.
type mockRepo struct {
	mu         sync.Mutex
	books      map[int64]*data.Book
	loans      map[int64]*data.Loan
	nextBookID int64
	nextLoanID int64

	// Failure injection for the borrow compensation paths.
	createLoanErr error
	incrementErr  error
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		books: make(map[int64]*data.Book),
		loans: make(map[int64]*data.Loan),
	}
}

func (m *mockRepo) addBook(title string, totalCopies, availableCopies int32) *data.Book {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextBookID++
	book := &data.Book{
		ID:              m.nextBookID,
		CreatedAt:       time.Now(),
		Title:           title,
		Author:          "Test Author",
		Category:        "Fiction",
		TotalCopies:     totalCopies,
		AvailableCopies: availableCopies,
		Version:         1,
	}
	m.books[book.ID] = book
	return book
}

// openLoanCount reports the number of open loans referencing a book.
func (m *mockRepo) openLoanCount(bookID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, loan := range m.loans {
		if loan.BookID == bookID && loan.Status == data.LoanStatusOpen {
			n++
		}
	}
	return n
}

func (m *mockRepo) availableCopies(bookID int64) int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.books[bookID].AvailableCopies
}

func (m *mockRepo) CreateBook(book *data.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextBookID++
	book.ID = m.nextBookID
	book.CreatedAt = time.Now()
	book.Version = 1
	cp := *book
	m.books[book.ID] = &cp
	return nil
}

func (m *mockRepo) GetBook(ID int64) (*data.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	book, ok := m.books[ID]
	if !ok {
		return nil, repository.ErrRecordNotFound
	}
	cp := *book
	return &cp, nil
}

func (m *mockRepo) GetAllBooks(search, category string, filters data.Filters) ([]*data.Book, data.Metadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	books := []*data.Book{}
	for _, book := range m.books {
		if category != "" && book.Category != category {
			continue
		}
		cp := *book
		books = append(books, &cp)
	}
	return books, data.CalculateMetadata(len(books), filters.Page, filters.PageSize), nil
}

func (m *mockRepo) UpdateBook(book *data.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.books[book.ID]
	if !ok || existing.Version != book.Version {
		return repository.ErrEditConflict
	}
	book.Version++
	cp := *book
	// Counters are owned by the lending operations.
	cp.TotalCopies = existing.TotalCopies
	cp.AvailableCopies = existing.AvailableCopies
	m.books[book.ID] = &cp
	return nil
}

func (m *mockRepo) DeleteBook(bookID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[bookID]; !ok {
		return repository.ErrRecordNotFound
	}
	delete(m.books, bookID)
	return nil
}

func (m *mockRepo) CreateLoan(loan *data.Loan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createLoanErr != nil {
		return m.createLoanErr
	}
	// Mirror of the loans_open_book_user_idx partial unique index.
	for _, existing := range m.loans {
		if existing.BookID == loan.BookID && existing.UserEmail == loan.UserEmail && existing.Status == data.LoanStatusOpen {
			return repository.ErrDuplicateRecord
		}
	}
	m.nextLoanID++
	loan.ID = m.nextLoanID
	loan.BorrowedAt = time.Now()
	loan.Status = data.LoanStatusOpen
	cp := *loan
	m.loans[loan.ID] = &cp
	return nil
}

func (m *mockRepo) GetLoan(loanID int64) (*data.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	loan, ok := m.loans[loanID]
	if !ok {
		return nil, repository.ErrRecordNotFound
	}
	cp := *loan
	return &cp, nil
}

func (m *mockRepo) GetOpenLoanForUser(bookID int64, userEmail string) (*data.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, loan := range m.loans {
		if loan.BookID == bookID && loan.UserEmail == userEmail && loan.Status == data.LoanStatusOpen {
			cp := *loan
			return &cp, nil
		}
	}
	return nil, repository.ErrRecordNotFound
}

func (m *mockRepo) GetAllLoansForUser(userEmail string, filters data.Filters) ([]*data.Loan, data.Metadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	loans := []*data.Loan{}
	for _, loan := range m.loans {
		if loan.UserEmail == userEmail && loan.Status == data.LoanStatusOpen {
			cp := *loan
			loans = append(loans, &cp)
		}
	}
	return loans, data.CalculateMetadata(len(loans), filters.Page, filters.PageSize), nil
}

func (m *mockRepo) DecrementAvailableCopies(bookID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	book, ok := m.books[bookID]
	if !ok || book.AvailableCopies <= 0 {
		return repository.ErrEditConflict
	}
	book.AvailableCopies--
	book.Version++
	return nil
}

func (m *mockRepo) IncrementAvailableCopies(bookID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.incrementErr != nil {
		return m.incrementErr
	}
	book, ok := m.books[bookID]
	if !ok || book.AvailableCopies >= book.TotalCopies {
		return repository.ErrEditConflict
	}
	book.AvailableCopies++
	book.Version++
	return nil
}

func (m *mockRepo) ReturnLoan(loanID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	loan, ok := m.loans[loanID]
	if !ok || loan.Status != data.LoanStatusOpen {
		return repository.ErrRecordNotFound
	}
	book, ok := m.books[loan.BookID]
	if !ok || book.AvailableCopies >= book.TotalCopies {
		return repository.ErrEditConflict
	}
	now := time.Now()
	loan.Status = data.LoanStatusReturned
	loan.ReturnedAt = &now
	book.AvailableCopies++
	book.Version++
	return nil
}

func (m *mockRepo) GetAllCategories() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]bool)
	categories := []string{}
	for _, book := range m.books {
		if !seen[book.Category] {
			seen[book.Category] = true
			categories = append(categories, book.Category)
		}
	}
	return categories, nil
}

var errInsertFailed = errors.New("insert failed")
