package dto

// HealthResponse is a response from a health check.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// MessageResponse confirms a mutation.
type MessageResponse struct {
	Message string `json:"message"`
}

// SwitchResponse confirms a format switch.
type SwitchResponse struct {
	Message   string `json:"message"`
	From      string `json:"from"`
	To        string `json:"to"`
	Direction string `json:"direction"`
}

// BookSummary is a brief representation of a book for list responses.
type BookSummary struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// ListBooksResponse is a response containing every book.
type ListBooksResponse struct {
	Books []BookSummary `json:"books"`
}

// BookResponse is a book tree in the index file shape.
type BookResponse struct {
	Title string         `json:"title"`
	Slug  string         `json:"slug"`
	Pages []PageResponse `json:"pages"`
}

// PageResponse is a page or sub-page. Pages is null for leaves.
type PageResponse struct {
	Title    string         `json:"title"`
	Slug     string         `json:"slug"`
	FileName string         `json:"fileName"`
	Pages    []PageResponse `json:"pages"`
}

// ContentResponse is a page's content.
type ContentResponse struct {
	FileName string `json:"fileName"`
	Format   string `json:"format"`
	Content  string `json:"content"`
}
