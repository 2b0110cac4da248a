package application

import "time"

// TaskDTO represents a task in responses
type TaskDTO struct {
	CodTask     string           `json:"codTask"`
	CodOperator string           `json:"codOperator"`
	Date        string           `json:"date"`
	Type        string           `json:"type"`
	Status      string           `json:"status"`
	ProductList []ProductLineDTO `json:"productList"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// ProductLineDTO represents one product movement
type ProductLineDTO struct {
	CodProduct string `json:"codProduct"`
	From       string `json:"from,omitempty"`
	To         string `json:"to,omitempty"`
	Quantity   int    `json:"quantity"`
}
