package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jellydator/ttlcache/v3"
	"github.com/kamruzzaman103/library-management-server/data"
	"github.com/kamruzzaman103/library-management-server/data/dto"
	"github.com/kamruzzaman103/library-management-server/internal/validator"
	"github.com/kamruzzaman103/library-management-server/service"
)

func (h *Handler) createLoanHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody dto.CreateLoanRequestBody
	err := h.decodeJSON(w, r, &requestBody)
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	// Check the borrower's daily loan count before touching the ledger.
	// The count lives in the TTL cache and expires after a day.
	cacheKey := "loanCount:" + requestBody.UserEmail
	if item := h.cache.Get(cacheKey); item != nil && item.Value() >= int64(data.DailyLoanLimit) {
		h.dailyLoanLimitExceededResponse(w, r)
		return
	}
	loan, err := h.service.BorrowBook(requestBody)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFailedValidation):
			h.failedValidationResponse(w, r, err)
		case errors.Is(err, service.ErrRecordNotFound):
			h.notFoundResponse(w, r)
		case errors.Is(err, service.ErrNoCopiesAvailable):
			h.noCopiesAvailableResponse(w, r)
		case errors.Is(err, service.ErrDuplicateLoan):
			h.duplicateLoanResponse(w, r)
		default:
			h.serverErrorResponse(w, r, err)
		}
		return
	}
	var count int64
	if item := h.cache.Get(cacheKey); item != nil {
		count = item.Value()
	}
	h.cache.Set(cacheKey, count+1, ttlcache.DefaultTTL)
	headers := make(http.Header)
	headers.Set("Location", fmt.Sprintf("/v1/loans/%d", loan.ID))
	err = h.encodeJSON(w, http.StatusCreated, envelope{"loan": loan}, headers)
	if err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

func (h *Handler) showLoanHandler(w http.ResponseWriter, r *http.Request) {
	loanID, err := h.readIDParam(r, "loanId")
	if err != nil {
		h.notFoundResponse(w, r)
		return
	}
	loan, err := h.service.GetLoan(loanID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRecordNotFound):
			h.notFoundResponse(w, r)
		default:
			h.serverErrorResponse(w, r, err)
		}
		return
	}
	err = h.encodeJSON(w, http.StatusOK, envelope{"loan": loan}, nil)
	if err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

func (h *Handler) listLoansHandler(w http.ResponseWriter, r *http.Request) {
	var qsInput dto.QsListLoans
	v := validator.New()
	qs := r.URL.Query()
	qsInput.Email = h.readString(qs, "email", "")
	qsInput.Filters.Page = h.readInt(qs, "page", 1, v)
	qsInput.Filters.PageSize = h.readInt(qs, "page_size", 10, v)
	qsInput.Filters.Sort = h.readString(qs, "sort", "-borrowed_at")
	qsInput.Filters.SortSafeList = []string{"borrowed_at", "due_date", "-borrowed_at", "-due_date"}
	if qsInput.Email == "" {
		h.badRequestResponse(w, r, errors.New("email is required"))
		return
	}
	loans, metadata, err := h.service.ListLoansForUser(qsInput.Email, qsInput.Filters)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFailedValidation):
			h.failedValidationResponse(w, r, err)
		default:
			h.serverErrorResponse(w, r, err)
		}
		return
	}
	err = h.encodeJSON(w, http.StatusOK, envelope{"loans": loans, "metadata": metadata}, nil)
	if err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

func (h *Handler) deleteLoanHandler(w http.ResponseWriter, r *http.Request) {
	loanID, err := h.readIDParam(r, "loanId")
	if err != nil || loanID < 1 {
		h.notFoundResponse(w, r)
		return
	}
	err = h.service.ReturnBook(loanID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRecordNotFound):
			h.notFoundResponse(w, r)
		default:
			h.serverErrorResponse(w, r, err)
		}
		return
	}
	err = h.encodeJSON(w, http.StatusOK, envelope{"message": "book successfully returned"}, nil)
	if err != nil {
		h.serverErrorResponse(w, r, err)
	}
}
