package dto

// --- Health ---

// HealthRequest is a request to check system health.
type HealthRequest struct{}

// Validate is a no-op for HealthRequest.
func (r *HealthRequest) Validate() error {
	return nil
}

// --- Books ---

// CreateBookRequest creates a book. Title and type are checked by the store
// so that its messages reach the client unchanged.
type CreateBookRequest struct {
	Title         string `json:"title"`
	IndexPageType string `json:"indexPageType"`
}

// Validate is a no-op for CreateBookRequest.
func (r *CreateBookRequest) Validate() error {
	return nil
}

// ListBooksRequest lists every book.
type ListBooksRequest struct{}

// Validate is a no-op for ListBooksRequest.
func (r *ListBooksRequest) Validate() error {
	return nil
}

// BookRequest addresses a book.
type BookRequest struct {
	BookSlug string `path:"bookSlug"`
}

// Validate validates the book request fields.
func (r *BookRequest) Validate() error {
	if r.BookSlug == "" {
		return MissingField("bookSlug")
	}
	return nil
}

// PageRequest addresses a page of a book.
type PageRequest struct {
	BookSlug string `path:"bookSlug"`
	PageSlug string `path:"pageSlug"`
}

// Validate validates the page request fields.
func (r *PageRequest) Validate() error {
	if r.BookSlug == "" {
		return MissingField("bookSlug")
	}
	if r.PageSlug == "" {
		return MissingField("pageSlug")
	}
	return nil
}

// SubPageRequest addresses a sub-page.
type SubPageRequest struct {
	BookSlug    string `path:"bookSlug"`
	PageSlug    string `path:"pageSlug"`
	SubPageSlug string `path:"subPageSlug"`
}

// Validate validates the sub-page request fields.
func (r *SubPageRequest) Validate() error {
	if r.BookSlug == "" {
		return MissingField("bookSlug")
	}
	if r.PageSlug == "" {
		return MissingField("pageSlug")
	}
	if r.SubPageSlug == "" {
		return MissingField("subPageSlug")
	}
	return nil
}

// CreatePageRequest creates a page in a book.
type CreatePageRequest struct {
	BookSlug string `path:"bookSlug"`
	Title    string `json:"title"`
	PageType string `json:"pageType"`
}

// Validate validates the create page request fields.
func (r *CreatePageRequest) Validate() error {
	if r.BookSlug == "" {
		return MissingField("bookSlug")
	}
	return nil
}

// CreateSubPageRequest creates a sub-page under a page.
type CreateSubPageRequest struct {
	BookSlug string `path:"bookSlug"`
	PageSlug string `path:"pageSlug"`
	Title    string `json:"title"`
	PageType string `json:"pageType"`
}

// Validate validates the create sub-page request fields.
func (r *CreateSubPageRequest) Validate() error {
	if r.BookSlug == "" {
		return MissingField("bookSlug")
	}
	if r.PageSlug == "" {
		return MissingField("pageSlug")
	}
	return nil
}

// EditPageRequest replaces the content of a page.
type EditPageRequest struct {
	BookSlug string  `path:"bookSlug"`
	PageSlug string  `path:"pageSlug"`
	Content  *string `json:"content"`
}

// Validate validates the edit page request fields.
func (r *EditPageRequest) Validate() error {
	if r.BookSlug == "" {
		return MissingField("bookSlug")
	}
	if r.PageSlug == "" {
		return MissingField("pageSlug")
	}
	if r.Content == nil {
		return MissingField("content")
	}
	return nil
}

// EditSubPageRequest replaces the content of a sub-page.
type EditSubPageRequest struct {
	BookSlug    string  `path:"bookSlug"`
	PageSlug    string  `path:"pageSlug"`
	SubPageSlug string  `path:"subPageSlug"`
	Content     *string `json:"content"`
}

// Validate validates the edit sub-page request fields.
func (r *EditSubPageRequest) Validate() error {
	if r.BookSlug == "" {
		return MissingField("bookSlug")
	}
	if r.PageSlug == "" {
		return MissingField("pageSlug")
	}
	if r.SubPageSlug == "" {
		return MissingField("subPageSlug")
	}
	if r.Content == nil {
		return MissingField("content")
	}
	return nil
}
