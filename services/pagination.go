package services

// Pagination описывает страницу offset-пагинации.
type Pagination struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasPrev    bool `json:"has_prev"`
	HasNext    bool `json:"has_next"`
}

func normalizePage(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}

func pageOffset(page, pageSize int) int {
	return (normalizePage(page) - 1) * pageSize
}

func newPagination(page, pageSize, total int) Pagination {
	if pageSize <= 0 {
		pageSize = 1
	}
	page = normalizePage(page)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
	}
}
