// internal/models/company.go
package models

import "time"

type Company struct {
	CompanyID        string           `json:"companyID"`
	Name             string           `json:"name"`
	Location         string           `json:"location"`
	OrganisationRole OrganisationRole `json:"organisationRole"`
	HierarchyKey     string           `json:"hierarchyKey"`
	CreatedAt        time.Time        `json:"createdAt"`
}
