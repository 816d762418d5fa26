package shared

// Status is the generic success payload returned by delete operations.
type Status struct {
	Message string  `json:"message"`
	Details *string `json:"details"`
}
