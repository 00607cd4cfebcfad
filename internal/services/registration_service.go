// internal/services/registration_service.go
package services

import (
	"encoding/json"

	"github.com/sirupsen/logrus"

	"github.com/exploreiib/pharma-net/internal/identity"
	"github.com/exploreiib/pharma-net/internal/ledger"
	"github.com/exploreiib/pharma-net/internal/models"
)

// InvalidRoleMessage is returned in place of a company when the requested role is unknown.
const InvalidRoleMessage = "Invalid Organisation Role"

type RegistrationService struct {
	log logrus.FieldLogger
}

type RegisterCompanyRequest struct {
	CompanyCRN       string `json:"companyCRN" validate:"required,keypart"`
	CompanyName      string `json:"companyName" validate:"required,keypart"`
	Location         string `json:"location"`
	OrganisationRole string `json:"organisationRole"`
}

type AddDrugRequest struct {
	DrugName   string `json:"drugName" validate:"required,keypart"`
	SerialNo   string `json:"serialNo" validate:"required,keypart"`
	MfgDate    string `json:"mfgDate" validate:"required"`
	ExpDate    string `json:"expDate" validate:"required"`
	CompanyCRN string `json:"companyCRN" validate:"required,keypart"`
}

// RegistrationOutcome is either the stored company or a rejection message. A rejected
// registration is not an error: nothing is written and the message goes back to the caller.
type RegistrationOutcome struct {
	Company  *models.Company
	Rejected string
}

func (o RegistrationOutcome) MarshalJSON() ([]byte, error) {
	if o.Company == nil {
		return json.Marshal(o.Rejected)
	}
	return json.Marshal(o.Company)
}

func NewRegistrationService(log logrus.FieldLogger) *RegistrationService {
	return &RegistrationService{log: log}
}

// RegisterCompany stores a company under (CRN, name). Consumers may not register companies;
// such calls return a nil outcome and no error.
func (s *RegistrationService) RegisterCompany(ctx TxContext, req *RegisterCompanyRequest) (*RegistrationOutcome, error) {
	mspID, err := ctx.callerOrganization()
	if err != nil {
		return nil, err
	}
	if mspID == identity.ConsumerMSP {
		s.log.WithFields(logrus.Fields{
			"operation": "registerCompany",
			"crn":       req.CompanyCRN,
		}).Warn("Registration by consumer ignored")
		return nil, nil
	}

	if err := validate(req); err != nil {
		return nil, err
	}

	role := models.OrganisationRole(req.OrganisationRole)
	hierarchyKey, ok := role.HierarchyKey()
	if !ok {
		return &RegistrationOutcome{Rejected: InvalidRoleMessage}, nil
	}

	companyID, err := compositeKey(ctx, ledger.CompanyNamespace, req.CompanyCRN, req.CompanyName)
	if err != nil {
		return nil, err
	}

	createdAt, err := ctx.Ledger.Timestamp()
	if err != nil {
		return nil, err
	}

	company := &models.Company{
		CompanyID:        companyID,
		Name:             req.CompanyName,
		Location:         req.Location,
		OrganisationRole: role,
		HierarchyKey:     hierarchyKey,
		CreatedAt:        createdAt.UTC(),
	}
	if err := writeState(ctx, companyID, company); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"operation": "registerCompany",
		"company":   printableKey(companyID),
		"role":      role,
	}).Info("Company registered")

	return &RegistrationOutcome{Company: company}, nil
}

// AddDrug registers one serialised unit owned by the manufacturer that made it.
func (s *RegistrationService) AddDrug(ctx TxContext, req *AddDrugRequest) (*models.Drug, error) {
	mspID, err := ctx.callerOrganization()
	if err != nil {
		return nil, err
	}
	if mspID != identity.ManufacturerMSP {
		return nil, unauthorized("no one can add a drug but a manufacturer")
	}

	if err := validate(req); err != nil {
		return nil, err
	}

	manufacturer, err := resolveCompany(ctx, "companyCRN", req.CompanyCRN)
	if err != nil {
		return nil, err
	}

	productID, err := drugKey(ctx, req.DrugName, req.SerialNo)
	if err != nil {
		return nil, err
	}

	var existing models.Drug
	err = readState(ctx, "drug", productID, &existing)
	switch {
	case err == nil:
		return nil, conflict("drug %s is already registered", printableKey(productID))
	case !isNotFound(err):
		return nil, err
	}

	drug := &models.Drug{
		ProductID:         productID,
		Name:              req.DrugName,
		Manufacturer:      manufacturer.CompanyID,
		ManufacturingDate: req.MfgDate,
		ExpiryDate:        req.ExpDate,
		Owner:             manufacturer.CompanyID,
		Shipment:          "",
	}
	if err := writeState(ctx, productID, drug); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"operation": "addDrug",
		"drug":      printableKey(productID),
		"owner":     printableKey(drug.Owner),
	}).Info("Drug registered")

	return drug, nil
}
