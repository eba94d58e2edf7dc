package owner

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind tags which kind of account holder owns a wallet.
type Kind string

const (
	KindCustomer Kind = "customer"
	KindMerchant Kind = "merchant"
)

var (
	// ErrNotFound indicates the referenced owner does not exist.
	ErrNotFound = errors.New("owner not found")

	// ErrEmailTaken indicates another owner of the same kind already uses the email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrUnknownKind indicates an owner kind outside customer/merchant.
	ErrUnknownKind = errors.New("unknown owner kind")
)

// ParseKind converts a stored or routed value into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindCustomer:
		return KindCustomer, nil
	case KindMerchant:
		return KindMerchant, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Ref identifies exactly one owner. Wallets carry it for reporting only.
type Ref struct {
	Kind Kind
	ID   string
}

func (r Ref) String() string {
	return string(r.Kind) + ":" + r.ID
}

// MerchantProfile holds the brand and address details only merchants carry.
type MerchantProfile struct {
	BrandName        string
	BrandDescription string
	Address          string
	City             string
	State            string
	Country          string
	PostalCode       string
}

// Owner is the thin record kept for a customer or merchant. Owners are never
// deleted: their wallets and ledger entries outlive any edit to the record.
type Owner struct {
	Ref
	Name      string
	Email     string
	Phone     string
	Merchant  MerchantProfile
	CreatedAt time.Time
	UpdatedAt time.Time
}
