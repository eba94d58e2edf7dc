package owner

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/paywallet/wallet_ledger/internal/pagination"
)

// Service manages customer and merchant records.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new owner service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// CreateInput captures the data required to register an owner.
type CreateInput struct {
	Kind     Kind
	Name     string
	Email    string
	Phone    string
	Merchant MerchantProfile
}

// UpdateInput carries a partial edit. Nil fields are left untouched; merchant
// fields are ignored for customers.
type UpdateInput struct {
	Name             *string
	Email            *string
	Phone            *string
	BrandName        *string
	BrandDescription *string
	Address          *string
	City             *string
	State            *string
	Country          *string
	PostalCode       *string
}

// Create registers a new customer or merchant.
func (s *Service) Create(ctx context.Context, input CreateInput) (Owner, error) {
	if _, err := tableFor(input.Kind); err != nil {
		return Owner{}, err
	}

	now := s.now()
	owner := Owner{
		Ref:       Ref{Kind: input.Kind, ID: uuid.NewString()},
		Name:      strings.TrimSpace(input.Name),
		Email:     normalizeEmail(input.Email),
		Phone:     strings.TrimSpace(input.Phone),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if input.Kind == KindMerchant {
		owner.Merchant = trimProfile(input.Merchant)
	}

	if err := s.repo.Create(ctx, owner); err != nil {
		return Owner{}, err
	}
	return owner, nil
}

// Get resolves an owner reference.
func (s *Service) Get(ctx context.Context, ref Ref) (Owner, error) {
	return s.repo.Get(ctx, ref)
}

// List pages through owners of one kind in registration order.
func (s *Service) List(ctx context.Context, kind Kind, page pagination.Page) (pagination.Result[Owner], error) {
	page = page.Normalize()
	owners, err := s.repo.List(ctx, kind, page.Size+1, page.Offset())
	if err != nil {
		return pagination.Result[Owner]{}, err
	}
	return pagination.Trim(owners, page), nil
}

// Update applies a partial edit to an existing owner.
func (s *Service) Update(ctx context.Context, ref Ref, input UpdateInput) (Owner, error) {
	owner, err := s.repo.Get(ctx, ref)
	if err != nil {
		return Owner{}, err
	}

	apply(&owner.Name, input.Name, strings.TrimSpace)
	apply(&owner.Email, input.Email, normalizeEmail)
	apply(&owner.Phone, input.Phone, strings.TrimSpace)
	if owner.Kind == KindMerchant {
		m := &owner.Merchant
		apply(&m.BrandName, input.BrandName, strings.TrimSpace)
		apply(&m.BrandDescription, input.BrandDescription, strings.TrimSpace)
		apply(&m.Address, input.Address, strings.TrimSpace)
		apply(&m.City, input.City, strings.TrimSpace)
		apply(&m.State, input.State, strings.TrimSpace)
		apply(&m.Country, input.Country, strings.TrimSpace)
		apply(&m.PostalCode, input.PostalCode, strings.TrimSpace)
	}
	owner.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, owner); err != nil {
		return Owner{}, err
	}
	return owner, nil
}

func apply(dst *string, src *string, clean func(string) string) {
	if src != nil {
		*dst = clean(*src)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimProfile(p MerchantProfile) MerchantProfile {
	return MerchantProfile{
		BrandName:        strings.TrimSpace(p.BrandName),
		BrandDescription: strings.TrimSpace(p.BrandDescription),
		Address:          strings.TrimSpace(p.Address),
		City:             strings.TrimSpace(p.City),
		State:            strings.TrimSpace(p.State),
		Country:          strings.TrimSpace(p.Country),
		PostalCode:       strings.TrimSpace(p.PostalCode),
	}
}
