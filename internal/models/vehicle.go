package models

// Vehicle is the recommended trade expression.
type Vehicle string

const (
	VehicleStock        Vehicle = "stock"
	VehicleOptionCall   Vehicle = "option_call"
	VehicleOptionPut    Vehicle = "option_put"
	VehicleOptionSpread Vehicle = "option_spread"
)

// IntRange is an inclusive integer range.
type IntRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// FloatRange is an inclusive float range.
type FloatRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// VehicleRecommendation is the result of the stock-vs-options decision tree.
// Range and spread fields are only set for option vehicles; a stock
// recommendation carries none of them.
type VehicleRecommendation struct {
	Vehicle         Vehicle     `json:"vehicle"`
	Reasoning       string      `json:"reasoning"`
	DTERange        *IntRange   `json:"dte_range,omitempty"`
	DeltaRange      *FloatRange `json:"delta_range,omitempty"`
	SpreadType      string      `json:"spread_type,omitempty"`
	SpreadWidthInfo string      `json:"spread_width_info,omitempty"`
	ExpectedMovePct *float64    `json:"expected_move_percent,omitempty"`
}
