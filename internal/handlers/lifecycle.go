// internal/handlers/lifecycle.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/exploreiib/pharma-net/internal/gateway"
)

type LifecycleHandler struct {
	gateway *gateway.Gateway
}

type DrugLookupBody struct {
	OrgRequest
	DrugName string `json:"drugName"`
	SerialNo string `json:"serialNo"`
}

func NewLifecycleHandler(gw *gateway.Gateway) *LifecycleHandler {
	return &LifecycleHandler{gateway: gw}
}

// POST /view/viewHistory
func (h *LifecycleHandler) ViewHistory(c *gin.Context) {
	var req DrugLookupBody
	if !bind(c, &req) {
		return
	}

	run(c, h.gateway, req.NameOfOrg, "Drug history", func(conn *gateway.Connection) ([]byte, error) {
		return conn.Evaluate("viewHistory", req.DrugName, req.SerialNo)
	})
}

// POST /view/viewCurrentState
func (h *LifecycleHandler) ViewCurrentState(c *gin.Context) {
	var req DrugLookupBody
	if !bind(c, &req) {
		return
	}

	run(c, h.gateway, req.NameOfOrg, "Drug current state", func(conn *gateway.Connection) ([]byte, error) {
		return conn.Evaluate("viewDrugCurrentState", req.DrugName, req.SerialNo)
	})
}
