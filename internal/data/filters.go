package data

import (
	"math"

	"github.com/hafizmfadli/movie-catalog/internal/validator"
)

// Defaults used when the client sends no (or an unusable) page parameter.
const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

type Filters struct {
	Page     int
	PageSize int
	// Genre, when set, must be one of the movie's genres.
	Genre string
	// Year, when set, must equal the movie's year.
	Year *int
}

func (f Filters) limit() int {
	return f.PageSize
}

func (f Filters) offset() int {
	return (f.Page - 1) * f.PageSize
}

// ValidateFilters validate filters value to conform business rules.
// For each invalid filters value will be added as an error to v with
// corresponding key and appropriate message.
func ValidateFilters(v *validator.Validator, f Filters) {
	v.Check(f.Page > 0, "pagina", "must be greater than zero")
	v.Check(f.Page <= 10_000_000, "pagina", "must be a maximum of 10 million")
	v.Check(f.PageSize > 0, "limite", "must be greater than zero")
	// offset()+limit() is Page*PageSize and has to stay a valid int.
	if f.Page > 0 && f.PageSize > 0 {
		v.Check(f.PageSize <= math.MaxInt/f.Page, "limite", "is too large for the requested page")
	}
}

// Metadata struct for holding the pagination metadata.
type Metadata struct {
	CurrentPage  int `json:"paginaAtual"`
	PageSize     int `json:"-"`
	LastPage     int `json:"totalPaginas"`
	TotalRecords int `json:"totalFilmes"`
}

// calculateMetadata calculates the appropriate pagination metadata
// values given the total number of records, current page, and page size values.
// The last page is math.Ceil(totalRecords / pageSize), so 12 records with a
// page size of 5 give 3 pages and 0 records give 0 pages.
func calculateMetadata(totalRecords, page, pageSize int) Metadata {
	lastPage := 0
	if pageSize > 0 {
		lastPage = int(math.Ceil(float64(totalRecords) / float64(pageSize)))
	}

	return Metadata{
		CurrentPage:  page,
		PageSize:     pageSize,
		LastPage:     lastPage,
		TotalRecords: totalRecords,
	}
}
