package categories

// Category is a grouping that examples belong to. Titles are unique.
type Category struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Input carries the writable fields of a category.
type Input struct {
	Title string
}
