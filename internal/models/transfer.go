// internal/models/transfer.go
package models

// PurchaseOrder is keyed by (buyer CRN, drug name), so a buyer has at most one open order per
// drug. Raising another replaces it.
type PurchaseOrder struct {
	PoID     string `json:"poID"`
	DrugName string `json:"drugName"`
	Quantity int    `json:"quantity"`
	Buyer    string `json:"buyer"`
	Seller   string `json:"seller"`
}

type Shipment struct {
	ShipmentID  string         `json:"shipmentID"`
	Creator     string         `json:"creator"`
	Assets      []string       `json:"assets"`
	Transporter string         `json:"transporter"`
	Status      ShipmentStatus `json:"status"`
}
