// internal/contract/chaincode.go
package contract

import (
	"github.com/hyperledger/fabric-chaincode-go/shim"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/sirupsen/logrus"

	"github.com/exploreiib/pharma-net/internal/identity"
	"github.com/exploreiib/pharma-net/internal/ledger"
	"github.com/exploreiib/pharma-net/internal/services"
)

// IdentityResolver extracts the caller of a chaincode invocation.
type IdentityResolver func(stub shim.ChaincodeStubInterface) identity.Provider

// Chaincode runs the contract inside a Fabric peer. The peer commits or discards the
// transaction's writes as a unit.
type Chaincode struct {
	contract *Contract
	identify IdentityResolver
}

func NewChaincode(c *Contract, identify IdentityResolver) *Chaincode {
	if identify == nil {
		identify = identity.FromStub
	}
	return &Chaincode{contract: c, identify: identify}
}

// Init runs the instantiate operation when the chaincode is deployed or upgraded.
func (cc *Chaincode) Init(stub shim.ChaincodeStubInterface) pb.Response {
	return cc.run(stub, "instantiate", nil)
}

func (cc *Chaincode) Invoke(stub shim.ChaincodeStubInterface) pb.Response {
	fn, args := stub.GetFunctionAndParameters()
	return cc.run(stub, fn, args)
}

func (cc *Chaincode) run(stub shim.ChaincodeStubInterface, fn string, args []string) pb.Response {
	ctx := services.TxContext{
		Ledger:   ledger.NewStubLedger(stub),
		Identity: cc.identify(stub),
	}

	payload, err := cc.contract.Invoke(ctx, fn, args)
	if err != nil {
		cc.contract.log.WithFields(logrus.Fields{
			"tx_id":     stub.GetTxID(),
			"operation": fn,
		}).Error(err)
		return shim.Error(err.Error())
	}
	return shim.Success(payload)
}
