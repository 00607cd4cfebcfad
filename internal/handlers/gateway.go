// internal/handlers/gateway.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/exploreiib/pharma-net/internal/gateway"
	"github.com/exploreiib/pharma-net/internal/ledger"
	"github.com/exploreiib/pharma-net/internal/middleware"
	"github.com/exploreiib/pharma-net/internal/services"
	"github.com/exploreiib/pharma-net/internal/utils"
)

// OrgRequest names the organization whose credentials run the operation.
type OrgRequest struct {
	NameOfOrg string `json:"nameOfOrg"`
}

var errOrganizationMismatch = errors.New("nameOfOrg does not match the token organization")

// organization settles who is calling. A token organization always wins over the body.
func organization(c *gin.Context, nameOfOrg string) (string, error) {
	nameOfOrg = strings.TrimSpace(nameOfOrg)
	if tokenOrg, ok := middleware.TokenOrganization(c); ok {
		if nameOfOrg != "" && !strings.EqualFold(nameOfOrg, tokenOrg) {
			return "", errOrganizationMismatch
		}
		return tokenOrg, nil
	}
	if nameOfOrg == "" {
		return "", fmt.Errorf("%w: nameOfOrg is required", services.ErrValidation)
	}
	c.Set(middleware.OrganizationKey, nameOfOrg)
	return nameOfOrg, nil
}

// bind decodes the JSON body into req and reports a 400 on failure.
func bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return false
	}
	return true
}

type call func(conn *gateway.Connection) ([]byte, error)

// run executes one operation on a scoped connection and writes the response envelope.
func run(c *gin.Context, gw *gateway.Gateway, nameOfOrg, message string, fn call) {
	org, err := organization(c, nameOfOrg)
	if err != nil {
		respondError(c, err)
		return
	}

	var payload []byte
	err = gw.WithConnection(c.Request.Context(), org, func(conn *gateway.Connection) error {
		var err error
		payload, err = fn(conn)
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, json.RawMessage(payload), gin.H{"message": message})
}

// respondError maps an operation error to its HTTP status.
func respondError(c *gin.Context, err error) {
	c.Error(err)
	message := err.Error()

	switch {
	case errors.Is(err, gateway.ErrUnknownOrganization):
		utils.UnauthorizedResponse(c, message)
	case errors.Is(err, errOrganizationMismatch):
		utils.ForbiddenResponse(c, message)
	case errors.Is(err, services.ErrNotFound):
		utils.NotFoundResponse(c, message)
	case errors.Is(err, services.ErrUnauthorized):
		utils.ForbiddenResponse(c, message)
	case errors.Is(err, services.ErrValidation):
		utils.ValidationErrorResponse(c, message, nil)
	case errors.Is(err, services.ErrConflict), errors.Is(err, ledger.ErrConflict):
		utils.ConflictResponse(c, message)
	default:
		utils.InternalErrorResponse(c, message)
	}
}

// AssetList accepts serial numbers as a JSON array or as a string holding one.
type AssetList []string

func (a *AssetList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*a = list
		return nil
	}
	var encoded string
	if err := json.Unmarshal(data, &encoded); err != nil {
		return errors.New("listOfAssets must be an array of serial numbers")
	}
	if err := json.Unmarshal([]byte(encoded), &list); err != nil {
		return errors.New("listOfAssets must be an array of serial numbers")
	}
	*a = list
	return nil
}

func (a AssetList) argument() (string, error) {
	list := []string(a)
	if list == nil {
		list = []string{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

const welcomeMessage = "Welcome to the Pharmacy network"

// GET /
func Welcome(c *gin.Context) {
	c.String(http.StatusOK, welcomeMessage)
}
