package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/paywallet/wallet_ledger/internal/wallet"
)

// RegisterWalletRoutes wires wallet endpoints. guards run before credit and debit.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler, guards ...fiber.Handler) {
	guarded := func(handler fiber.Handler) []fiber.Handler {
		chain := make([]fiber.Handler, 0, len(guards)+1)
		chain = append(chain, guards...)
		return append(chain, handler)
	}

	r.Get("/wallets", h.List)
	r.Get("/wallets/:walletId", h.Get)
	r.Post("/wallets/:walletId/credit", guarded(h.Credit)...)
	r.Post("/wallets/:walletId/debit", guarded(h.Debit)...)
	r.Get("/wallets/:walletId/transactions", h.History)
}
