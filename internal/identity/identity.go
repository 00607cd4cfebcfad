// internal/identity/identity.go
package identity

import (
	"errors"
	"fmt"

	"github.com/hyperledger/fabric-chaincode-go/pkg/cid"
	"github.com/hyperledger/fabric-chaincode-go/shim"
)

// Organization identifiers issued by the network's membership service providers.
const (
	ManufacturerMSP = "manufacturerMSP"
	DistributorMSP  = "distributorMSP"
	RetailerMSP     = "retailerMSP"
	TransporterMSP  = "transporterMSP"
	ConsumerMSP     = "consumerMSP"
)

var ErrNoIdentity = errors.New("caller identity unavailable")

// Provider exposes the authenticated caller of the current invocation. Credentials are
// verified by the platform before the contract runs.
type Provider interface {
	CallerOrganization() (string, error)
	CallerRawIdentity() (string, error)
}

// Static is a fixed identity, used by the gateway once a credential profile is resolved.
type Static struct {
	MSPID string
	ID    string
}

func (s Static) CallerOrganization() (string, error) {
	if s.MSPID == "" {
		return "", ErrNoIdentity
	}
	return s.MSPID, nil
}

func (s Static) CallerRawIdentity() (string, error) {
	if s.ID == "" {
		return "", ErrNoIdentity
	}
	return s.ID, nil
}

type clientIdentity struct {
	stub shim.ChaincodeStubInterface
}

// FromStub reads the transaction creator's certificate through the Fabric client identity
// library.
func FromStub(stub shim.ChaincodeStubInterface) Provider {
	return clientIdentity{stub: stub}
}

func (c clientIdentity) CallerOrganization() (string, error) {
	mspID, err := cid.GetMSPID(c.stub)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoIdentity, err)
	}
	return mspID, nil
}

func (c clientIdentity) CallerRawIdentity() (string, error) {
	id, err := cid.GetID(c.stub)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoIdentity, err)
	}
	return id, nil
}
