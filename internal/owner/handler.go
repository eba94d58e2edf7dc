package owner

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/paywallet/wallet_ledger/internal/pagination"
	"github.com/paywallet/wallet_ledger/internal/validation"
)

// Handler exposes owner endpoints.
type Handler struct {
	service  *Service
	validate *validation.Validator
}

// NewHandler constructs an owner HTTP handler.
func NewHandler(service *Service, validate *validation.Validator) *Handler {
	return &Handler{service: service, validate: validate}
}

type customerRequest struct {
	Name  string `json:"name" validate:"required,min=3,max=100"`
	Email string `json:"email" validate:"required,email,max=255"`
	Phone string `json:"phone_no" validate:"omitempty,e164"`
}

type merchantRequest struct {
	Name             string `json:"name" validate:"required,min=3,max=100"`
	Email            string `json:"email" validate:"required,email,max=255"`
	Phone            string `json:"phone_no" validate:"omitempty,e164"`
	BrandName        string `json:"brand_name" validate:"required,min=3,max=100"`
	BrandDescription string `json:"brand_description" validate:"required,min=3,max=1000"`
	Address          string `json:"address" validate:"max=255"`
	City             string `json:"city" validate:"max=100"`
	State            string `json:"state" validate:"max=100"`
	Country          string `json:"country" validate:"max=100"`
	PostalCode       string `json:"postal_code" validate:"omitempty,numeric,len=6"`
}

// updateRequest fields are all optional; merchant fields are ignored for customers.
type updateRequest struct {
	Name             *string `json:"name" validate:"omitempty,min=3,max=100"`
	Email            *string `json:"email" validate:"omitempty,email,max=255"`
	Phone            *string `json:"phone_no" validate:"omitempty,e164"`
	BrandName        *string `json:"brand_name" validate:"omitempty,min=3,max=100"`
	BrandDescription *string `json:"brand_description" validate:"omitempty,min=3,max=1000"`
	Address          *string `json:"address" validate:"omitempty,max=255"`
	City             *string `json:"city" validate:"omitempty,max=100"`
	State            *string `json:"state" validate:"omitempty,max=100"`
	Country          *string `json:"country" validate:"omitempty,max=100"`
	PostalCode       *string `json:"postal_code" validate:"omitempty,numeric,len=6"`
}

type merchantFields struct {
	BrandName        string `json:"brand_name"`
	BrandDescription string `json:"brand_description"`
	Address          string `json:"address"`
	City             string `json:"city"`
	State            string `json:"state"`
	Country          string `json:"country"`
	PostalCode       string `json:"postal_code"`
}

type ownerResponse struct {
	ID    string `json:"id"`
	Kind  Kind   `json:"owner_type"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone_no"`
	*merchantFields
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toResponse(o Owner) ownerResponse {
	resp := ownerResponse{
		ID:        o.ID,
		Kind:      o.Kind,
		Name:      o.Name,
		Email:     o.Email,
		Phone:     o.Phone,
		CreatedAt: o.CreatedAt.Format(time.RFC3339),
		UpdatedAt: o.UpdatedAt.Format(time.RFC3339),
	}
	if o.Kind == KindMerchant {
		m := o.Merchant
		resp.merchantFields = &merchantFields{
			BrandName:        m.BrandName,
			BrandDescription: m.BrandDescription,
			Address:          m.Address,
			City:             m.City,
			State:            m.State,
			Country:          m.Country,
			PostalCode:       m.PostalCode,
		}
	}
	return resp
}

// bind parses and validates the body. When ok is false the request has
// already been answered or err must be returned to fiber.
func (h *Handler) bind(c *fiber.Ctx, req any) (ok bool, err error) {
	if err := c.BodyParser(req); err != nil {
		return false, fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if errs := h.validate.Struct(req); len(errs) > 0 {
		return false, c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{
			"status":  false,
			"message": "Request Failed",
			"errors":  errs,
		})
	}
	return true, nil
}

func (h *Handler) createInput(c *fiber.Ctx, kind Kind) (CreateInput, bool, error) {
	if kind == KindMerchant {
		var req merchantRequest
		if ok, err := h.bind(c, &req); !ok {
			return CreateInput{}, false, err
		}
		return CreateInput{
			Kind:  kind,
			Name:  req.Name,
			Email: req.Email,
			Phone: req.Phone,
			Merchant: MerchantProfile{
				BrandName:        req.BrandName,
				BrandDescription: req.BrandDescription,
				Address:          req.Address,
				City:             req.City,
				State:            req.State,
				Country:          req.Country,
				PostalCode:       req.PostalCode,
			},
		}, true, nil
	}
	var req customerRequest
	if ok, err := h.bind(c, &req); !ok {
		return CreateInput{}, false, err
	}
	return CreateInput{Kind: kind, Name: req.Name, Email: req.Email, Phone: req.Phone}, true, nil
}

// Create returns a handler registering an owner of the given kind.
func (h *Handler) Create(kind Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, ok, err := h.createInput(c, kind)
		if !ok {
			return err
		}
		owner, err := h.service.Create(c.UserContext(), input)
		if err != nil {
			return serviceError(err)
		}
		return c.Status(http.StatusCreated).JSON(fiber.Map{
			"status":  true,
			"message": "Owner created successfully",
			"data":    toResponse(owner),
		})
	}
}

// Get returns a handler fetching an owner of the given kind by :ownerId.
func (h *Handler) Get(kind Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner, err := h.service.Get(c.UserContext(), Ref{Kind: kind, ID: c.Params("ownerId")})
		if err != nil {
			return serviceError(err)
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":  true,
			"message": "Success",
			"data":    toResponse(owner),
		})
	}
}

// List returns a handler paging through owners of the given kind.
func (h *Handler) List(kind Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		result, err := h.service.List(c.UserContext(), kind, pagination.FromQuery(c))
		if err != nil {
			return serviceError(err)
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":  true,
			"message": "Success",
			"result":  pagination.ToResponse(result, toResponse),
		})
	}
}

// Update returns a handler applying a partial edit to an owner. It serves
// both PUT and PATCH.
func (h *Handler) Update(kind Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req updateRequest
		if ok, err := h.bind(c, &req); !ok {
			return err
		}
		owner, err := h.service.Update(c.UserContext(), Ref{Kind: kind, ID: c.Params("ownerId")}, UpdateInput{
			Name:             req.Name,
			Email:            req.Email,
			Phone:            req.Phone,
			BrandName:        req.BrandName,
			BrandDescription: req.BrandDescription,
			Address:          req.Address,
			City:             req.City,
			State:            req.State,
			Country:          req.Country,
			PostalCode:       req.PostalCode,
		})
		if err != nil {
			return serviceError(err)
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":  true,
			"message": "Owner updated successfully",
			"data":    toResponse(owner),
		})
	}
}

func serviceError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrEmailTaken):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, "Something went wrong")
	}
}
