// Package policy implements the admission decisions for borrowing and
// returning books. The functions are pure: they decide over the records
// handed to them and never touch storage, so the lending rules can be
// tested without a database. The write-time guards in the repository are
// still the final word under concurrency; these checks are the advisory
// fast path that produces friendly errors.
package policy

import "github.com/kamruzzaman103/library-management-server/data"

// Reason explains why a borrow or return request was denied.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonNotFound
	ReasonNoCopiesAvailable
	ReasonAlreadyBorrowed
)

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason Reason) Decision {
	return Decision{Reason: reason}
}

// CanBorrow decides whether userEmail may borrow book. openLoan is the
// borrower's existing open loan on the same book, or nil if there is none.
func CanBorrow(book *data.Book, userEmail string, openLoan *data.Loan) Decision {
	if book == nil {
		return deny(ReasonNotFound)
	}
	if book.AvailableCopies == 0 {
		return deny(ReasonNoCopiesAvailable)
	}
	if openLoan != nil && openLoan.Status == data.LoanStatusOpen && openLoan.UserEmail == userEmail {
		return deny(ReasonAlreadyBorrowed)
	}
	return allow()
}

// CanReturn decides whether loan may be returned. A loan that is absent
// or already returned is treated as not found, which makes a second
// return of the same loan fail cleanly.
func CanReturn(loan *data.Loan) Decision {
	if loan == nil || loan.Status != data.LoanStatusOpen {
		return deny(ReasonNotFound)
	}
	return allow()
}
