// internal/handlers/transfer.go
package handlers

import (
	"encoding/json"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/exploreiib/pharma-net/internal/gateway"
	"github.com/exploreiib/pharma-net/internal/services"
)

type TransferHandler struct {
	gateway *gateway.Gateway
}

type CreatePOBody struct {
	OrgRequest
	BuyerCRN  string      `json:"buyerCRN"`
	SellerCRN string      `json:"sellerCRN"`
	DrugName  string      `json:"drugName"`
	Quantity  json.Number `json:"quantity"`
}

type CreateShipmentBody struct {
	OrgRequest
	BuyerCRN       string    `json:"buyerCRN"`
	DrugName       string    `json:"drugName"`
	ListOfAssets   AssetList `json:"listOfAssets"`
	TransporterCRN string    `json:"transporterCRN"`
}

type UpdateShipmentBody struct {
	OrgRequest
	BuyerCRN       string `json:"buyerCRN"`
	DrugName       string `json:"drugName"`
	TransporterCRN string `json:"transporterCRN"`
}

type RetailDrugBody struct {
	OrgRequest
	DrugName       string `json:"drugName"`
	SerialNo       string `json:"serialNo"`
	RetailerCRN    string `json:"retailerCRN"`
	CustomerAadhar string `json:"customerAadhar"`
}

func NewTransferHandler(gw *gateway.Gateway) *TransferHandler {
	return &TransferHandler{gateway: gw}
}

// POST /transfer/createPO
func (h *TransferHandler) CreatePO(c *gin.Context) {
	var req CreatePOBody
	if !bind(c, &req) {
		return
	}

	run(c, h.gateway, req.NameOfOrg, "New Purchase Order created", func(conn *gateway.Connection) ([]byte, error) {
		return conn.Submit("createPO", req.BuyerCRN, req.SellerCRN, req.DrugName, req.Quantity.String())
	})
}

// POST /transfer/createShipment
func (h *TransferHandler) CreateShipment(c *gin.Context) {
	var req CreateShipmentBody
	if !bind(c, &req) {
		return
	}

	assets, err := req.ListOfAssets.argument()
	if err != nil {
		respondError(c, fmt.Errorf("%w: %v", services.ErrValidation, err))
		return
	}

	run(c, h.gateway, req.NameOfOrg, "New Shipment created", func(conn *gateway.Connection) ([]byte, error) {
		return conn.Submit("createShipment", req.BuyerCRN, req.DrugName, assets, req.TransporterCRN)
	})
}

// POST /transfer/updateShipment
func (h *TransferHandler) UpdateShipment(c *gin.Context) {
	var req UpdateShipmentBody
	if !bind(c, &req) {
		return
	}

	run(c, h.gateway, req.NameOfOrg, "Shipment delivered", func(conn *gateway.Connection) ([]byte, error) {
		return conn.Submit("updateShipment", req.BuyerCRN, req.DrugName, req.TransporterCRN)
	})
}

// POST /transfer/retailDrug
func (h *TransferHandler) RetailDrug(c *gin.Context) {
	var req RetailDrugBody
	if !bind(c, &req) {
		return
	}

	run(c, h.gateway, req.NameOfOrg, "Drug sold to customer", func(conn *gateway.Connection) ([]byte, error) {
		return conn.Submit("retailDrug", req.DrugName, req.SerialNo, req.RetailerCRN, req.CustomerAadhar)
	})
}
