// internal/handlers/registration.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/exploreiib/pharma-net/internal/gateway"
)

type RegistrationHandler struct {
	gateway *gateway.Gateway
}

type RegisterCompanyBody struct {
	OrgRequest
	CompanyCRN       string `json:"companyCRN"`
	CompanyName      string `json:"companyName"`
	Location         string `json:"location"`
	OrganisationRole string `json:"organisationRole"`
}

type AddDrugBody struct {
	OrgRequest
	DrugName   string `json:"drugName"`
	SerialNo   string `json:"serialNo"`
	MfgDate    string `json:"mfgDate"`
	ExpDate    string `json:"expDate"`
	CompanyCRN string `json:"companyCRN"`
}

func NewRegistrationHandler(gw *gateway.Gateway) *RegistrationHandler {
	return &RegistrationHandler{gateway: gw}
}

// POST /register/registerCompany
func (h *RegistrationHandler) RegisterCompany(c *gin.Context) {
	var req RegisterCompanyBody
	if !bind(c, &req) {
		return
	}

	run(c, h.gateway, req.NameOfOrg, "New Company got registered", func(conn *gateway.Connection) ([]byte, error) {
		return conn.Submit("registerCompany", req.CompanyCRN, req.CompanyName, req.Location, req.OrganisationRole)
	})
}

// POST /register/addDrug
func (h *RegistrationHandler) AddDrug(c *gin.Context) {
	var req AddDrugBody
	if !bind(c, &req) {
		return
	}

	run(c, h.gateway, req.NameOfOrg, "New Drug got registered", func(conn *gateway.Connection) ([]byte, error) {
		return conn.Submit("addDrug", req.DrugName, req.SerialNo, req.MfgDate, req.ExpDate, req.CompanyCRN)
	})
}
