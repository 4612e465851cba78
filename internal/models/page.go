package models

// Page is a from/size window over an ordered result set.
type Page struct {
	From int
	Size int
}

// Valid reports whether from is non-negative and size positive.
func (p Page) Valid() bool {
	return p.From >= 0 && p.Size >= 1
}

// Offset converts from into a page number by integer division and returns
// the first row of that page. from=7,size=5 starts at row 5, not 7.
func (p Page) Offset() int {
	if p.From <= 0 || p.Size <= 0 {
		return 0
	}
	return (p.From / p.Size) * p.Size
}

func (p Page) Limit() int {
	return p.Size
}
