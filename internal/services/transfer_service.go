// internal/services/transfer_service.go
package services

import (
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/exploreiib/pharma-net/internal/identity"
	"github.com/exploreiib/pharma-net/internal/ledger"
	"github.com/exploreiib/pharma-net/internal/models"
)

type TransferService struct {
	log logrus.FieldLogger
}

type CreatePORequest struct {
	BuyerCRN  string `json:"buyerCRN" validate:"required,keypart"`
	SellerCRN string `json:"sellerCRN" validate:"required,keypart"`
	DrugName  string `json:"drugName" validate:"required,keypart"`
	Quantity  int    `json:"quantity" validate:"min=1"`
}

type CreateShipmentRequest struct {
	BuyerCRN       string   `json:"buyerCRN" validate:"required,keypart"`
	DrugName       string   `json:"drugName" validate:"required,keypart"`
	ListOfAssets   []string `json:"listOfAssets" validate:"dive,required,keypart"`
	TransporterCRN string   `json:"transporterCRN" validate:"required,keypart"`
}

type UpdateShipmentRequest struct {
	BuyerCRN       string `json:"buyerCRN" validate:"required,keypart"`
	DrugName       string `json:"drugName" validate:"required,keypart"`
	TransporterCRN string `json:"transporterCRN" validate:"required,keypart"`
}

type RetailDrugRequest struct {
	DrugName    string `json:"drugName" validate:"required,keypart"`
	SerialNo    string `json:"serialNo" validate:"required,keypart"`
	RetailerCRN string `json:"retailerCRN" validate:"required,keypart"`
	CustomerID  string `json:"customerAadhar" validate:"required"`
}

func NewTransferService(log logrus.FieldLogger) *TransferService {
	return &TransferService{log: log}
}

// ParseQuantity decodes the unit count of a purchase order argument.
func ParseQuantity(raw string) (int, error) {
	quantity, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, invalid("quantity %q is not an integer", raw)
	}
	return quantity, nil
}

// CreatePO raises a purchase order from buyer to seller. Only distributors and retailers buy,
// and only from the tier directly above them.
func (s *TransferService) CreatePO(ctx TxContext, req *CreatePORequest) (*models.PurchaseOrder, error) {
	mspID, err := ctx.callerOrganization()
	if err != nil {
		return nil, err
	}
	if mspID != identity.RetailerMSP && mspID != identity.DistributorMSP {
		return nil, unauthorized("only a distributor or a retailer can create a purchase order")
	}

	if err := validate(req); err != nil {
		return nil, err
	}

	buyer, err := resolveCompany(ctx, "buyer companyCRN", req.BuyerCRN)
	if err != nil {
		return nil, err
	}
	seller, err := resolveCompany(ctx, "seller companyCRN", req.SellerCRN)
	if err != nil {
		return nil, err
	}

	if !buyer.OrganisationRole.CanBuyFrom(seller.OrganisationRole) {
		return nil, invalid("%s can't purchase from %s", buyer.OrganisationRole, seller.OrganisationRole)
	}

	poID, err := compositeKey(ctx, ledger.PurchaseOrderNamespace, req.BuyerCRN, req.DrugName)
	if err != nil {
		return nil, err
	}

	order := &models.PurchaseOrder{
		PoID:     poID,
		DrugName: req.DrugName,
		Quantity: req.Quantity,
		Buyer:    buyer.CompanyID,
		Seller:   seller.CompanyID,
	}
	if err := writeState(ctx, poID, order); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"operation": "createPO",
		"po":        printableKey(poID),
		"seller":    printableKey(seller.CompanyID),
		"quantity":  req.Quantity,
	}).Info("Purchase order created")

	return order, nil
}

// CreateShipment dispatches the units listed against an open purchase order and hands them to
// the transporter. Every unit is checked before anything is written.
func (s *TransferService) CreateShipment(ctx TxContext, req *CreateShipmentRequest) ([]*models.Drug, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	poID, err := compositeKey(ctx, ledger.PurchaseOrderNamespace, req.BuyerCRN, req.DrugName)
	if err != nil {
		return nil, err
	}
	var order models.PurchaseOrder
	if err := readState(ctx, "purchase order", poID, &order); err != nil {
		return nil, err
	}

	if len(req.ListOfAssets) != order.Quantity {
		return nil, invalid("shipment lists %d assets but the purchase order is for %d", len(req.ListOfAssets), order.Quantity)
	}

	seen := make(map[string]bool, len(req.ListOfAssets))
	assets := make([]string, 0, len(req.ListOfAssets))
	drugs := make([]*models.Drug, 0, len(req.ListOfAssets))
	for _, serialNo := range req.ListOfAssets {
		if seen[serialNo] {
			return nil, invalid("serial number %q is listed more than once", serialNo)
		}
		seen[serialNo] = true

		productID, err := drugKey(ctx, req.DrugName, serialNo)
		if err != nil {
			return nil, err
		}
		var drug models.Drug
		if err := readState(ctx, "drug", productID, &drug); err != nil {
			if isNotFound(err) {
				return nil, invalid("drug %s serial %s is not registered with the network", req.DrugName, serialNo)
			}
			return nil, err
		}
		if drug.Owner != order.Seller {
			return nil, invalid("drug %s serial %s is not held by the seller", req.DrugName, serialNo)
		}

		assets = append(assets, productID)
		drugs = append(drugs, &drug)
	}

	transporter, err := resolveCompany(ctx, "transporterCRN", req.TransporterCRN)
	if err != nil {
		return nil, err
	}

	creator, err := ctx.Identity.CallerRawIdentity()
	if err != nil {
		return nil, unauthorized("%v", err)
	}

	shipmentID, err := compositeKey(ctx, ledger.ShipmentNamespace, req.BuyerCRN, req.DrugName)
	if err != nil {
		return nil, err
	}
	shipment := &models.Shipment{
		ShipmentID:  shipmentID,
		Creator:     creator,
		Assets:      assets,
		Transporter: transporter.CompanyID,
		Status:      models.ShipmentStatusInTransit,
	}
	if err := writeState(ctx, shipmentID, shipment); err != nil {
		return nil, err
	}

	for _, drug := range drugs {
		drug.Owner = transporter.CompanyID
		if err := writeState(ctx, drug.ProductID, drug); err != nil {
			return nil, err
		}
	}

	s.log.WithFields(logrus.Fields{
		"operation": "createShipment",
		"shipment":  printableKey(shipmentID),
		"owner":     printableKey(transporter.CompanyID),
		"assets":    len(assets),
	}).Info("Shipment in transit")

	return drugs, nil
}

// UpdateShipment marks a shipment delivered and passes its units to the buyer. The named
// transporter must be the one recorded on the shipment.
func (s *TransferService) UpdateShipment(ctx TxContext, req *UpdateShipmentRequest) ([]*models.Drug, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	transporter, err := resolveCompany(ctx, "transporterCRN", req.TransporterCRN)
	if err != nil {
		return nil, err
	}

	shipmentID, err := compositeKey(ctx, ledger.ShipmentNamespace, req.BuyerCRN, req.DrugName)
	if err != nil {
		return nil, err
	}
	var shipment models.Shipment
	if err := readState(ctx, "shipment", shipmentID, &shipment); err != nil {
		return nil, err
	}

	if shipment.Transporter != transporter.CompanyID {
		return nil, conflict("transporter on shipment record %s doesn't match transporter %s",
			printableKey(shipment.Transporter), printableKey(transporter.CompanyID))
	}
	if shipment.Status == models.ShipmentStatusDelivered {
		return nil, conflict("shipment %s has already been delivered", printableKey(shipmentID))
	}

	buyer, err := resolveCompany(ctx, "buyerCRN", req.BuyerCRN)
	if err != nil {
		return nil, err
	}

	shipment.Status = models.ShipmentStatusDelivered
	if err := writeState(ctx, shipmentID, &shipment); err != nil {
		return nil, err
	}

	drugs := make([]*models.Drug, 0, len(shipment.Assets))
	for _, productID := range shipment.Assets {
		var drug models.Drug
		if err := readState(ctx, "drug", productID, &drug); err != nil {
			return nil, err
		}
		drug.Owner = buyer.CompanyID
		drug.Shipment = shipmentID
		if err := writeState(ctx, productID, &drug); err != nil {
			return nil, err
		}
		drugs = append(drugs, &drug)
	}

	s.log.WithFields(logrus.Fields{
		"operation": "updateShipment",
		"shipment":  printableKey(shipmentID),
		"owner":     printableKey(buyer.CompanyID),
	}).Info("Shipment delivered")

	return drugs, nil
}

// RetailDrug sells one unit to a consumer. The consumer identifier is stored as given and no
// further transfer is possible.
func (s *TransferService) RetailDrug(ctx TxContext, req *RetailDrugRequest) (*models.Drug, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	productID, err := drugKey(ctx, req.DrugName, req.SerialNo)
	if err != nil {
		return nil, err
	}
	var drug models.Drug
	if err := readState(ctx, "drug", productID, &drug); err != nil {
		return nil, err
	}

	retailer, err := resolveCompany(ctx, "retailerCRN", req.RetailerCRN)
	if err != nil {
		return nil, err
	}

	if drug.Owner != retailer.CompanyID {
		return nil, unauthorized("sorry you are not the owner of this drug")
	}

	drug.Owner = req.CustomerID
	if err := writeState(ctx, productID, &drug); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"operation": "retailDrug",
		"drug":      printableKey(productID),
	}).Info("Drug sold to consumer")

	return &drug, nil
}
