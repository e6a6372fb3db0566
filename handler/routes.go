package handler

import (
	"expvar"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func (h *Handler) Routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(h.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(h.methodNotAllowed)

	router.HandlerFunc(http.MethodGet, "/v1/books", h.listBooksHandler)
	router.HandlerFunc(http.MethodPost, "/v1/books", h.createBookHandler)
	router.HandlerFunc(http.MethodGet, "/v1/books/:bookId", h.showBookHandler)
	router.HandlerFunc(http.MethodPatch, "/v1/books/:bookId", h.updateBookHandler)
	router.HandlerFunc(http.MethodDelete, "/v1/books/:bookId", h.deleteBookHandler)
	router.HandlerFunc(http.MethodPatch, "/v1/books/:bookId/cover", h.updateBookCoverHandler)

	router.HandlerFunc(http.MethodGet, "/v1/categories", h.listCategoriesHandler)

	router.HandlerFunc(http.MethodPost, "/v1/loans", h.createLoanHandler)
	router.HandlerFunc(http.MethodGet, "/v1/loans", h.listLoansHandler)
	router.HandlerFunc(http.MethodGet, "/v1/loans/:loanId", h.showLoanHandler)
	router.HandlerFunc(http.MethodDelete, "/v1/loans/:loanId", h.deleteLoanHandler)

	router.HandlerFunc(http.MethodGet, "/debug/vars", h.basicAuth(expvar.Handler().ServeHTTP))
	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", h.healthcheckHandler)

	return h.recoverPanic(h.metrics(h.enableCORS(h.rateLimit(router))))
}
