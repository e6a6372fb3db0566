package service

type categories interface {
	ListCategories() ([]string, error)
}

// ListCategories service retrieves the distinct categories across the catalog.
func (s *service) ListCategories() ([]string, error) {
	return s.repo.GetAllCategories()
}
