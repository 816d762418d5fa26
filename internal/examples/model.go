package examples

// Example is a showcase item belonging to a category. Deleting the category
// cascades at the store layer.
type Example struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Age         *int    `json:"age"`
	Price       float64 `json:"price"`
	Description *string `json:"description"`
	CategoryID  int64   `json:"category_id"`
}

// Input carries the writable fields of an example.
type Input struct {
	Title       string
	Age         *int
	Price       float64
	Description *string
	CategoryID  int64
}
