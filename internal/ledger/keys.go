// internal/ledger/keys.go
package ledger

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Composite keys use the same layout as the Fabric peer:
// U+0000 namespace U+0000 attr1 U+0000 ... attrN U+0000
const (
	compositeKeyNamespace = "\x00"
	minUnicodeRuneValue   = 0
	maxUnicodeRuneValue   = utf8.MaxRune
)

// Entity namespaces.
const (
	CompanyNamespace       = "org.drug-counterfeit.pharmanet.company"
	DrugNamespace          = "org.drug-counterfeit.pharmanet.drug"
	PurchaseOrderNamespace = "org.drug-counterfeit.pharmanet.purchaseOrder"
	ShipmentNamespace      = "org.drug-counterfeit.pharmanet.shipment"
)

var ErrInvalidKey = errors.New("invalid composite key")

// CreateCompositeKey joins a namespace and an ordered attribute tuple into a key.
func CreateCompositeKey(namespace string, attributes []string) (string, error) {
	if err := validateKeyPart(namespace); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(compositeKeyNamespace)
	b.WriteString(namespace)
	b.WriteRune(minUnicodeRuneValue)
	for _, attr := range attributes {
		if err := validateKeyPart(attr); err != nil {
			return "", err
		}
		b.WriteString(attr)
		b.WriteRune(minUnicodeRuneValue)
	}
	return b.String(), nil
}

// SplitCompositeKey is the inverse of CreateCompositeKey.
func SplitCompositeKey(key string) (string, []string, error) {
	if !strings.HasPrefix(key, compositeKeyNamespace) || !strings.HasSuffix(key, string(rune(minUnicodeRuneValue))) || len(key) < 2 {
		return "", nil, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	parts := strings.Split(key[1:len(key)-1], string(rune(minUnicodeRuneValue)))
	return parts[0], parts[1:], nil
}

// PrefixRange returns the [start, end) key range covered by a partial composite key.
func PrefixRange(namespace string, attributes []string) (string, string, error) {
	start, err := CreateCompositeKey(namespace, attributes)
	if err != nil {
		return "", "", err
	}
	return start, start + string(maxUnicodeRuneValue), nil
}

// ResolvePrefix emulates a secondary index: it scans the namespace for keys that start with
// the given leading attributes and returns the full attribute tuple of the first match in key
// order.
//
// It is only correct while the leading attributes are unique within the namespace. Two
// companies registered under one CRN with different names both match, and the first one in key
// order wins silently.
func ResolvePrefix(l Ledger, namespace string, leading ...string) ([]string, error) {
	it, err := l.ScanByPrefix(namespace, leading)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	if !it.HasNext() {
		return nil, fmt.Errorf("%w: no %s key with prefix %v", ErrNotFound, namespace, leading)
	}

	kv, err := it.Next()
	if err != nil {
		return nil, fmt.Errorf("failed to read prefix scan: %w", err)
	}

	_, attributes, err := l.SplitCompositeKey(kv.Key)
	if err != nil {
		return nil, err
	}
	return attributes, nil
}

func validateKeyPart(part string) error {
	if !utf8.ValidString(part) {
		return fmt.Errorf("%w: %q is not valid utf-8", ErrInvalidKey, part)
	}
	for _, r := range part {
		if r == minUnicodeRuneValue || r == maxUnicodeRuneValue {
			return fmt.Errorf("%w: %q contains U+%04X", ErrInvalidKey, part, r)
		}
	}
	return nil
}
