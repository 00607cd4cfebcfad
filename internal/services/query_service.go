// internal/services/query_service.go
package services

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/exploreiib/pharma-net/internal/models"
)

type QueryService struct {
	log logrus.FieldLogger
}

type DrugLookupRequest struct {
	DrugName string `json:"drugName" validate:"required,keypart"`
	SerialNo string `json:"serialNo" validate:"required,keypart"`
}

func NewQueryService(log logrus.FieldLogger) *QueryService {
	return &QueryService{log: log}
}

// ViewHistory returns every committed version of a drug, oldest first. Deletions carry no
// value and are skipped.
func (s *QueryService) ViewHistory(ctx TxContext, req *DrugLookupRequest) ([]*models.Drug, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	productID, err := drugKey(ctx, req.DrugName, req.SerialNo)
	if err != nil {
		return nil, err
	}

	iter, err := ctx.Ledger.History(productID)
	if err != nil {
		return nil, fmt.Errorf("failed to read history of %s: %w", printableKey(productID), err)
	}
	defer iter.Close()

	versions := make([]*models.Drug, 0)
	for iter.HasNext() {
		mod, err := iter.Next()
		if err != nil {
			return nil, fmt.Errorf("failed to read history of %s: %w", printableKey(productID), err)
		}
		if mod.IsDelete || len(mod.Value) == 0 {
			continue
		}
		var drug models.Drug
		if err := json.Unmarshal(mod.Value, &drug); err != nil {
			return nil, fmt.Errorf("failed to decode version %s of %s: %w", mod.TxID, printableKey(productID), err)
		}
		versions = append(versions, &drug)
	}

	s.log.WithFields(logrus.Fields{
		"operation": "viewHistory",
		"drug":      printableKey(productID),
		"versions":  len(versions),
	}).Debug("History read")

	return versions, nil
}

func (s *QueryService) ViewDrugCurrentState(ctx TxContext, req *DrugLookupRequest) (*models.Drug, error) {
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
	return &drug, nil
}
