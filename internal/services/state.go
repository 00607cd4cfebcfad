// internal/services/state.go
package services

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/exploreiib/pharma-net/internal/identity"
	"github.com/exploreiib/pharma-net/internal/ledger"
	"github.com/exploreiib/pharma-net/internal/models"
)

// TxContext bundles the ports of one invocation.
type TxContext struct {
	Ledger   ledger.Ledger
	Identity identity.Provider
}

func (ctx TxContext) callerOrganization() (string, error) {
	mspID, err := ctx.Identity.CallerOrganization()
	if err != nil {
		return "", unauthorized("%v", err)
	}
	return mspID, nil
}

func compositeKey(ctx TxContext, namespace string, attributes ...string) (string, error) {
	key, err := ctx.Ledger.CreateCompositeKey(namespace, attributes)
	if err != nil {
		return "", invalid("%v", err)
	}
	return key, nil
}

// readState decodes the current value of key into out. what names the entity in the error.
func readState(ctx TxContext, what, key string, out interface{}) error {
	data, err := ctx.Ledger.Get(key)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return notFound("the %s with %s does not exist", what, printableKey(key))
		}
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s %s: %w", what, printableKey(key), err)
	}
	return nil
}

func writeState(ctx TxContext, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", printableKey(key), err)
	}
	return ctx.Ledger.Put(key, data)
}

// resolveCompany finds a company by CRN alone. The registered name is recovered from the
// first company key carrying that CRN.
func resolveCompany(ctx TxContext, label, crn string) (*models.Company, error) {
	attrs, err := ledger.ResolvePrefix(ctx.Ledger, ledger.CompanyNamespace, crn)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, notFound("invalid %s %q", label, crn)
		}
		return nil, err
	}

	key, err := compositeKey(ctx, ledger.CompanyNamespace, attrs...)
	if err != nil {
		return nil, err
	}

	var company models.Company
	if err := readState(ctx, "company", key, &company); err != nil {
		return nil, err
	}
	return &company, nil
}

func drugKey(ctx TxContext, drugName, serialNo string) (string, error) {
	return compositeKey(ctx, ledger.DrugNamespace, drugName, serialNo)
}

// printableKey renders the U+0000 separators of a composite key readably.
func printableKey(key string) string {
	namespace, attrs, err := ledger.SplitCompositeKey(key)
	if err != nil {
		return key
	}
	out := namespace
	for _, a := range attrs {
		out += ":" + a
	}
	return out
}
