package service

import "shareit/internal/models"

// NewPage validates from/size and builds a page.
func NewPage(from, size int) (models.Page, error) {
	p := models.Page{From: from, Size: size}
	if !p.Valid() {
		return models.Page{}, errValidation("invalid paging from=%d size=%d: from must be >= 0 and size >= 1", from, size)
	}
	return p, nil
}
