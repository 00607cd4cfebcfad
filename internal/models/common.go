// internal/models/common.go
package models

// Enums
type OrganisationRole string

const (
	RoleManufacturer OrganisationRole = "Manufacturer"
	RoleDistributor  OrganisationRole = "Distributor"
	RoleRetailer     OrganisationRole = "Retailer"
	RoleTransporter  OrganisationRole = "Transporter"
)

// HierarchyKey orders the roles that trade drugs. Transporters carry goods but never buy,
// so they have no rank.
func (r OrganisationRole) HierarchyKey() (string, bool) {
	switch r {
	case RoleManufacturer:
		return "1", true
	case RoleDistributor:
		return "2", true
	case RoleRetailer:
		return "3", true
	case RoleTransporter:
		return "", true
	default:
		return "", false
	}
}

func (r OrganisationRole) Valid() bool {
	_, ok := r.HierarchyKey()
	return ok
}

// CanBuyFrom reports whether a buyer in role r may raise a purchase order against seller.
func (r OrganisationRole) CanBuyFrom(seller OrganisationRole) bool {
	switch r {
	case RoleRetailer:
		return seller == RoleDistributor
	case RoleDistributor:
		return seller == RoleManufacturer
	default:
		return false
	}
}

type ShipmentStatus string

const (
	ShipmentStatusInTransit ShipmentStatus = "in-transit"
	ShipmentStatusDelivered ShipmentStatus = "delivered"
)
