package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/paywallet/wallet_ledger/internal/owner"
	"github.com/paywallet/wallet_ledger/internal/wallet"
)

// RegisterOwnerRoutes wires customer and merchant endpoints, including the
// wallets nested under each owner.
func RegisterOwnerRoutes(r fiber.Router, owners *owner.Handler, wallets *wallet.Handler) {
	for _, kind := range []owner.Kind{owner.KindCustomer, owner.KindMerchant} {
		base := "/" + string(kind) + "s"
		r.Post(base, owners.Create(kind))
		r.Get(base, owners.List(kind))
		r.Get(base+"/:ownerId", owners.Get(kind))
		r.Put(base+"/:ownerId", owners.Update(kind))
		r.Patch(base+"/:ownerId", owners.Update(kind))
		r.Post(base+"/:ownerId/wallets", wallets.Create(kind))
		r.Get(base+"/:ownerId/wallets", wallets.ListByOwner(kind))
	}
}
