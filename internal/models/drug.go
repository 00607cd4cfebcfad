// internal/models/drug.go
package models

// Drug is one serialised unit. Owner holds a company id until the unit is sold, then the
// customer identifier given at the counter.
type Drug struct {
	ProductID         string `json:"productID"`
	Name              string `json:"name"`
	Manufacturer      string `json:"manufacturer"`
	ManufacturingDate string `json:"manufacturingDate"`
	ExpiryDate        string `json:"expiryDate"`
	Owner             string `json:"owner"`
	Shipment          string `json:"shipment"`
}
