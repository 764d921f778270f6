package request

// CreateHoldingRequest represents the request body for registering a holding.
// Either Name or Symbol must be given; the other is filled from the listed
// issue catalog or the first quote.
type CreateHoldingRequest struct {
	Name           string   `json:"name" validate:"required_without=Symbol,max=100"`
	Symbol         string   `json:"symbol" validate:"omitempty,krx_symbol"`
	PurchasePrice  float64  `json:"purchasePrice" validate:"gte=0,lte=1000000000000"`
	PurchaseDate   string   `json:"purchaseDate" validate:"required,datetime=2006-01-02"`
	TakeProfitRate *float64 `json:"takeProfitRate,omitempty" validate:"omitempty,gte=0,lte=10000"`
	StopLossRate   *float64 `json:"stopLossRate,omitempty" validate:"omitempty,gte=-100,lte=100"`
	Enabled        *bool    `json:"enabled,omitempty"`
}

// UpdateHoldingRequest represents the request body for editing a holding.
// All fields are optional. Only provided fields will be updated.
type UpdateHoldingRequest struct {
	Name           *string  `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	PurchasePrice  *float64 `json:"purchasePrice,omitempty" validate:"omitempty,gte=0,lte=1000000000000"`
	PurchaseDate   *string  `json:"purchaseDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	TakeProfitRate *float64 `json:"takeProfitRate,omitempty" validate:"omitempty,gte=0,lte=10000"`
	StopLossRate   *float64 `json:"stopLossRate,omitempty" validate:"omitempty,gte=-100,lte=100"`
	Enabled        *bool    `json:"enabled,omitempty"`
	Hidden         *bool    `json:"hidden,omitempty"`
}
