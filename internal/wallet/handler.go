package wallet

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/paywallet/wallet_ledger/internal/ledger"
	"github.com/paywallet/wallet_ledger/internal/owner"
	"github.com/paywallet/wallet_ledger/internal/pagination"
	"github.com/paywallet/wallet_ledger/internal/validation"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service  *Service
	validate *validation.Validator
	logger   *slog.Logger
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service, validate *validation.Validator, logger *slog.Logger) *Handler {
	return &Handler{service: service, validate: validate, logger: logger}
}

type createRequest struct {
	Name     string `json:"name" validate:"required,min=3,max=100"`
	Currency string `json:"currency" validate:"omitempty,len=3"`
}

type movementRequest struct {
	Amount    decimal.Decimal `json:"amount" validate:"required,gt=0"`
	Narration string          `json:"narration" validate:"max=255"`
}

type walletResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Currency  string     `json:"currency"`
	OwnerID   string     `json:"owner_id"`
	OwnerType owner.Kind `json:"owner_type"`
	Active    bool       `json:"is_active"`
	Balance   string     `json:"balance"`
	CreatedAt string     `json:"created_at"`
	UpdatedAt string     `json:"updated_at"`
}

type transactionResponse struct {
	ID            string      `json:"id"`
	WalletID      string      `json:"wallet_id"`
	Amount        string      `json:"amount"`
	ResultBalance string      `json:"result_balance"`
	Type          ledger.Kind `json:"type"`
	Narration     string      `json:"narration"`
	CreatedAt     string      `json:"created_at"`
}

func toWalletResponse(w Wallet) walletResponse {
	return walletResponse{
		ID:        w.ID,
		Name:      w.Name,
		Currency:  w.Currency,
		OwnerID:   w.Owner.ID,
		OwnerType: w.Owner.Kind,
		Active:    w.Active,
		Balance:   w.Balance.StringFixed(ledger.Scale),
		CreatedAt: w.CreatedAt.Format(time.RFC3339),
		UpdatedAt: w.UpdatedAt.Format(time.RFC3339),
	}
}

func failed(c *fiber.Ctx, errs []string) error {
	return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{
		"status":  false,
		"message": "Request Failed",
		"errors":  errs,
	})
}

// respondError maps service errors onto the API's status codes. Unexpected
// errors are logged and never echoed to the client.
func (h *Handler) respondError(c *fiber.Ctx, err error) error {
	var insufficient *ledger.InsufficientFundsError
	switch {
	case errors.As(err, &insufficient):
		return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{
			"status":  false,
			"message": "Insufficient wallet balance",
			"balance": insufficient.Balance.StringFixed(ledger.Scale),
		})
	case errors.Is(err, ErrDuplicateWallet):
		msg := err.Error()
		var dup *DuplicateWalletError
		if errors.As(err, &dup) {
			msg = "A wallet for " + dup.Currency + " already exists"
		}
		return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{"status": false, "message": msg})
	case errors.Is(err, ErrUnsupportedCurrency), errors.Is(err, ledger.ErrInvalidAmount):
		return failed(c, []string{err.Error()})
	case errors.Is(err, ledger.ErrWalletInactive):
		return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{"status": false, "message": "Wallet is inactive"})
	case errors.Is(err, ErrNotFound):
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"status": false, "message": "Wallet not found"})
	case errors.Is(err, owner.ErrNotFound):
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"status": false, "message": "Owner not found"})
	case errors.Is(err, ledger.ErrTransactionFailed):
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"status": false, "message": "Transaction failed"})
	default:
		h.logger.Error("wallet request failed",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Any("error", err),
		)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"status": false, "message": "Something went wrong"})
	}
}

// Create returns a handler provisioning a wallet for the :ownerId of kind.
func (h *Handler) Create(kind owner.Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		if errs := h.validate.Struct(req); len(errs) > 0 {
			return failed(c, errs)
		}
		wallet, err := h.service.Create(c.UserContext(), CreateInput{
			Owner:    owner.Ref{Kind: kind, ID: c.Params("ownerId")},
			Name:     req.Name,
			Currency: req.Currency,
		})
		if err != nil {
			return h.respondError(c, err)
		}
		return c.Status(http.StatusCreated).JSON(fiber.Map{
			"status":  true,
			"message": "Wallet created successfully",
			"data":    toWalletResponse(wallet),
		})
	}
}

// ListByOwner returns a handler paging the wallets of the :ownerId of kind.
func (h *Handler) ListByOwner(kind owner.Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		result, err := h.service.ListByOwner(c.UserContext(), owner.Ref{Kind: kind, ID: c.Params("ownerId")}, pagination.FromQuery(c))
		if err != nil {
			return h.respondError(c, err)
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":  true,
			"message": "Success",
			"result":  pagination.ToResponse(result, toWalletResponse),
		})
	}
}

// List pages through every wallet.
func (h *Handler) List(c *fiber.Ctx) error {
	result, err := h.service.List(c.UserContext(), pagination.FromQuery(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"status":  true,
		"message": "Success",
		"result":  pagination.ToResponse(result, toWalletResponse),
	})
}

// Get returns a single wallet with its balance.
func (h *Handler) Get(c *fiber.Ctx) error {
	wallet, err := h.service.Get(c.UserContext(), c.Params("walletId"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"status":  true,
		"message": "Success",
		"data":    toWalletResponse(wallet),
	})
}

// Credit adds funds to the wallet.
func (h *Handler) Credit(c *fiber.Ctx) error {
	return h.move(c, h.service.Credit)
}

// Debit removes funds from the wallet.
func (h *Handler) Debit(c *fiber.Ctx) error {
	return h.move(c, h.service.Debit)
}

type movement func(ctx context.Context, walletID string, amount decimal.Decimal, narration string) (decimal.Decimal, error)

func (h *Handler) move(c *fiber.Ctx, apply movement) error {
	var req movementRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if errs := h.validate.Struct(req); len(errs) > 0 {
		return failed(c, errs)
	}
	balance, err := apply(c.UserContext(), c.Params("walletId"), req.Amount, req.Narration)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"status":  true,
		"message": "Transaction was successful",
		"balance": balance.StringFixed(ledger.Scale),
	})
}

// History pages through the wallet's transactions, newest first.
func (h *Handler) History(c *fiber.Ctx) error {
	result, err := h.service.History(c.UserContext(), c.Params("walletId"), pagination.FromQuery(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"status":  true,
		"message": "Success",
		"result": pagination.ToResponse(result, func(t Transaction) transactionResponse {
			return transactionResponse{
				ID:            t.ID,
				WalletID:      t.WalletID,
				Amount:        t.Amount.StringFixed(ledger.Scale),
				ResultBalance: t.ResultBalance.StringFixed(ledger.Scale),
				Type:          t.Kind,
				Narration:     t.Narration,
				CreatedAt:     t.CreatedAt.Format(time.RFC3339),
			}
		}),
	})
}
