package query

import "context"

// DefaultPerPage is used when Paginate receives a non-positive page size.
const DefaultPerPage = 15

// Page is one slice of a paginated result.
type Page struct {
	Data        []Row `json:"data"`
	Total       int64 `json:"total"`
	PerPage     int   `json:"per_page"`
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
	From        int   `json:"from"`
	To          int   `json:"to"`
}

// Paginate counts matching rows and fetches the requested page.
// Both steps run on clones, so the receiver keeps its clauses.
func (b *Builder) Paginate(ctx context.Context, page, perPage int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}

	total, err := b.Clone().Count(ctx)
	if err != nil {
		return nil, err
	}

	offset := (page - 1) * perPage
	rows, err := b.Clone().Limit(perPage).Offset(offset).Get(ctx)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []Row{}
	}

	p := &Page{
		Data:        rows,
		Total:       total,
		PerPage:     perPage,
		CurrentPage: page,
		LastPage:    int((total + int64(perPage) - 1) / int64(perPage)),
	}
	if total > 0 && len(rows) > 0 {
		p.From = offset + 1
		p.To = int(min(int64(offset+perPage), total))
	}
	return p, nil
}
