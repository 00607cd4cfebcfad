// internal/contract/dispatch.go
package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/exploreiib/pharma-net/internal/services"
)

// Name qualifies operation names, as in "org.drug-counterfeit.pharmanet:createPO".
const Name = "org.drug-counterfeit.pharmanet"

var ErrUnknownOperation = errors.New("unknown operation")

type operation struct {
	arity    int
	readOnly bool
	run      func(ctx services.TxContext, args []string) (interface{}, error)
}

// Contract maps operation names to the services that implement them.
type Contract struct {
	registration *services.RegistrationService
	transfer     *services.TransferService
	query        *services.QueryService
	log          logrus.FieldLogger
	operations   map[string]operation
}

func New(log logrus.FieldLogger) *Contract {
	c := &Contract{
		registration: services.NewRegistrationService(log),
		transfer:     services.NewTransferService(log),
		query:        services.NewQueryService(log),
		log:          log,
	}

	c.operations = map[string]operation{
		"instantiate":          {arity: 0, run: c.instantiate},
		"registerCompany":      {arity: 4, run: c.registerCompany},
		"addDrug":              {arity: 5, run: c.addDrug},
		"createPO":             {arity: 4, run: c.createPO},
		"createShipment":       {arity: 4, run: c.createShipment},
		"updateShipment":       {arity: 3, run: c.updateShipment},
		"retailDrug":           {arity: 4, run: c.retailDrug},
		"viewHistory":          {arity: 2, readOnly: true, run: c.viewHistory},
		"viewDrugCurrentState": {arity: 2, readOnly: true, run: c.viewDrugCurrentState},
	}
	return c
}

// Operations lists the registered operation names in alphabetical order.
func (c *Contract) Operations() []string {
	names := make([]string, 0, len(c.operations))
	for name := range c.operations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsReadOnly reports whether fn never writes state. Unknown names report false.
func (c *Contract) IsReadOnly(fn string) bool {
	op, ok := c.operations[trimNamespace(fn)]
	return ok && op.readOnly
}

// Invoke runs fn with positional string arguments and returns its JSON payload. A nil result
// encodes as an empty payload.
func (c *Contract) Invoke(ctx services.TxContext, fn string, args []string) ([]byte, error) {
	name := trimNamespace(fn)
	op, ok := c.operations[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, fn)
	}
	if len(args) != op.arity {
		return nil, fmt.Errorf("%w: %s expects %d arguments, got %d", services.ErrValidation, name, op.arity, len(args))
	}

	result, err := op.run(ctx, args)
	if err != nil {
		c.log.WithFields(logrus.Fields{
			"operation": name,
			"error":     err.Error(),
		}).Warn("Operation failed")
		return nil, err
	}
	if result == nil {
		return nil, nil
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s result: %w", name, err)
	}
	return payload, nil
}

func trimNamespace(fn string) string {
	return strings.TrimPrefix(fn, Name+":")
}

func (c *Contract) instantiate(_ services.TxContext, _ []string) (interface{}, error) {
	c.log.Info("Pharmanet contract instantiated")
	return nil, nil
}

func (c *Contract) registerCompany(ctx services.TxContext, args []string) (interface{}, error) {
	outcome, err := c.registration.RegisterCompany(ctx, &services.RegisterCompanyRequest{
		CompanyCRN:       args[0],
		CompanyName:      args[1],
		Location:         args[2],
		OrganisationRole: args[3],
	})
	if err != nil || outcome == nil {
		return nil, err
	}
	return outcome, nil
}

func (c *Contract) addDrug(ctx services.TxContext, args []string) (interface{}, error) {
	drug, err := c.registration.AddDrug(ctx, &services.AddDrugRequest{
		DrugName:   args[0],
		SerialNo:   args[1],
		MfgDate:    args[2],
		ExpDate:    args[3],
		CompanyCRN: args[4],
	})
	if err != nil {
		return nil, err
	}
	return drug, nil
}

func (c *Contract) createPO(ctx services.TxContext, args []string) (interface{}, error) {
	quantity, err := services.ParseQuantity(args[3])
	if err != nil {
		return nil, err
	}
	order, err := c.transfer.CreatePO(ctx, &services.CreatePORequest{
		BuyerCRN:  args[0],
		SellerCRN: args[1],
		DrugName:  args[2],
		Quantity:  quantity,
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (c *Contract) createShipment(ctx services.TxContext, args []string) (interface{}, error) {
	var assets []string
	if err := json.Unmarshal([]byte(args[2]), &assets); err != nil {
		return nil, fmt.Errorf("%w: listOfAssets must be a JSON array of serial numbers: %v", services.ErrValidation, err)
	}
	drugs, err := c.transfer.CreateShipment(ctx, &services.CreateShipmentRequest{
		BuyerCRN:       args[0],
		DrugName:       args[1],
		ListOfAssets:   assets,
		TransporterCRN: args[3],
	})
	if err != nil {
		return nil, err
	}
	return drugs, nil
}

func (c *Contract) updateShipment(ctx services.TxContext, args []string) (interface{}, error) {
	drugs, err := c.transfer.UpdateShipment(ctx, &services.UpdateShipmentRequest{
		BuyerCRN:       args[0],
		DrugName:       args[1],
		TransporterCRN: args[2],
	})
	if err != nil {
		return nil, err
	}
	return drugs, nil
}

func (c *Contract) retailDrug(ctx services.TxContext, args []string) (interface{}, error) {
	drug, err := c.transfer.RetailDrug(ctx, &services.RetailDrugRequest{
		DrugName:    args[0],
		SerialNo:    args[1],
		RetailerCRN: args[2],
		CustomerID:  args[3],
	})
	if err != nil {
		return nil, err
	}
	return drug, nil
}

func (c *Contract) viewHistory(ctx services.TxContext, args []string) (interface{}, error) {
	return c.query.ViewHistory(ctx, &services.DrugLookupRequest{DrugName: args[0], SerialNo: args[1]})
}

func (c *Contract) viewDrugCurrentState(ctx services.TxContext, args []string) (interface{}, error) {
	drug, err := c.query.ViewDrugCurrentState(ctx, &services.DrugLookupRequest{DrugName: args[0], SerialNo: args[1]})
	if err != nil {
		return nil, err
	}
	return drug, nil
}
