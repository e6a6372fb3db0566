package service

import (
	"errors"
	"net/http"

	"github.com/kamruzzaman103/library-management-server/clients"
	"github.com/kamruzzaman103/library-management-server/data"
	"github.com/kamruzzaman103/library-management-server/data/dto"
	"github.com/kamruzzaman103/library-management-server/internal/validator"
	"github.com/kamruzzaman103/library-management-server/repository"
)

type books interface {
	CreateBook(requestBody dto.CreateBookRequestBody) (*data.Book, error)
	GetBook(bookID int64) (*data.Book, error)
	ListBooks(search, category string, filters data.Filters) ([]*data.Book, data.Metadata, error)
	UpdateBook(bookID int64, requestBody dto.UpdateBookRequestBody) (*data.Book, error)
	UpdateBookCover(bookID int64, r *http.Request) (*data.Book, error)
	DeleteBook(bookID int64) error
}

// CreateBook service creates a new book. The book starts out with all of
// its copies available.
func (s *service) CreateBook(requestBody dto.CreateBookRequestBody) (*data.Book, error) {
	book := &data.Book{
		Title:           requestBody.Title,
		Author:          requestBody.Author,
		Category:        requestBody.Category,
		Description:     requestBody.Description,
		Image:           requestBody.Image,
		Rating:          requestBody.Rating,
		TotalCopies:     requestBody.TotalCopies,
		AvailableCopies: requestBody.TotalCopies,
	}
	v := validator.New()
	if data.ValidateBook(v, book); !v.Valid() {
		return nil, s.failedValidation(v.Errors)
	}
	err := s.repo.CreateBook(book)
	if err != nil {
		return nil, err
	}
	return book, nil
}

// GetBook service retrieves the details of a book.
func (s *service) GetBook(bookID int64) (*data.Book, error) {
	book, err := s.repo.GetBook(bookID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRecordNotFound):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return book, nil
}

// ListBooks service retrieves a list of paginated books. The list can be
// searched, filtered by category and sorted.
func (s *service) ListBooks(search, category string, filters data.Filters) ([]*data.Book, data.Metadata, error) {
	v := validator.New()
	if data.ValidateFilters(v, filters); !v.Valid() {
		return nil, data.Metadata{}, s.failedValidation(v.Errors)
	}
	books, metadata, err := s.repo.GetAllBooks(search, category, filters)
	if err != nil {
		return nil, data.Metadata{}, err
	}
	return books, metadata, nil
}

// UpdateBook service updates the descriptive details of a specific book.
// Copy counts cannot be changed here; available copies move only through
// borrow and return.
func (s *service) UpdateBook(bookID int64, requestBody dto.UpdateBookRequestBody) (*data.Book, error) {
	book, err := s.repo.GetBook(bookID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRecordNotFound):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	// Update only fields with new data
	if requestBody.Title != nil {
		book.Title = *requestBody.Title
	}
	if requestBody.Author != nil {
		book.Author = *requestBody.Author
	}
	if requestBody.Category != nil {
		book.Category = *requestBody.Category
	}
	if requestBody.Description != nil {
		book.Description = *requestBody.Description
	}
	if requestBody.Rating != nil {
		book.Rating = *requestBody.Rating
	}
	v := validator.New()
	if data.ValidateBook(v, book); !v.Valid() {
		return nil, s.failedValidation(v.Errors)
	}
	err = s.repo.UpdateBook(book)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEditConflict):
			return nil, ErrEditConflict
		default:
			return nil, err
		}
	}
	return book, nil
}

// UpdateBookCover service uploads a new cover image for a book to S3
// object storage and saves its public URL on the book record.
func (s *service) UpdateBookCover(bookID int64, r *http.Request) (*data.Book, error) {
	book, err := s.repo.GetBook(bookID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRecordNotFound):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	// Parse form data
	err = r.ParseMultipartForm(5000)
	if err != nil {
		var maxBytesError *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesError):
			return nil, ErrContentTooLarge
		default:
			return nil, ErrBadRequest
		}
	}
	file, fileHeader, err := r.FormFile("cover")
	if err != nil {
		return nil, ErrBadRequest
	}
	defer file.Close()
	// Detect file Mime type
	buffer, mtype, err := s.detectMimeType(file, fileHeader)
	if err != nil {
		return nil, err
	}
	// Check whether Mime type is supported
	supportedMediaType := []string{
		"image/jpeg",
		"image/png",
		"image/webp",
	}
	if validMime := validator.Mime(mtype.String(), supportedMediaType...); !validMime {
		return nil, ErrUnsupportedMediaType
	}
	// Upload file to s3 object storage
	s3Client, err := clients.NewS3Client(s.config)
	if err != nil {
		return nil, err
	}
	coverURL, err := s.uploadFileToS3(s3Client, buffer, mtype, fileHeader, data.ScopeCover)
	if err != nil {
		return nil, err
	}
	book.Image = coverURL
	err = s.repo.UpdateBook(book)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEditConflict):
			return nil, ErrEditConflict
		default:
			return nil, err
		}
	}
	return book, nil
}

// DeleteBook service deletes a book.
func (s *service) DeleteBook(bookID int64) error {
	err := s.repo.DeleteBook(bookID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRecordNotFound):
			return ErrRecordNotFound
		default:
			return err
		}
	}
	return nil
}
