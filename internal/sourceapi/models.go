package sourceapi

// Category is a top-level grouping in the remote help center.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Section belongs to exactly one Category.
type Section struct {
	ID         int64  `json:"id"`
	CategoryID int64  `json:"category_id"`
	Name       string `json:"name"`
}

// RemoteArticle belongs to exactly one Section. Body is HTML as returned
// by the remote.
type RemoteArticle struct {
	ID        int64  `json:"id"`
	SectionID int64  `json:"section_id"`
	Name      string `json:"name"`
	Body      string `json:"body"`
}

// page is embedded in every listing response; next_page is null on the
// last page.
type page struct {
	Page      int     `json:"page"`
	NextPage  *string `json:"next_page"`
	PageCount int     `json:"page_count"`
	Count     int     `json:"count"`
}

type categoriesResponse struct {
	page
	Categories []Category `json:"categories"`
}

type sectionsResponse struct {
	page
	Sections []Section `json:"sections"`
}

type articlesResponse struct {
	page
	Articles []RemoteArticle `json:"articles"`
}
