package models

// Order is one pending job lead as returned by the orders backend.
type Order struct {
	ID       int64   `json:"id"`
	Price    float64 `json:"price"`
	Distance string  `json:"distance"`
	Duration string  `json:"duration"`
}
