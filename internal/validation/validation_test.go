package validation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type movementRequest struct {
	Amount    decimal.Decimal `json:"amount" validate:"required,gt=0"`
	Narration string          `json:"narration" validate:"max=10"`
}

func TestStructValidatesDecimalAmounts(t *testing.T) {
	v := New()

	assert.Empty(t, v.Struct(movementRequest{Amount: decimal.RequireFromString("0.01")}))

	errs := v.Struct(movementRequest{Amount: decimal.RequireFromString("-5")})
	assert.Equal(t, []string{"amount must be greater than 0"}, errs)

	errs = v.Struct(movementRequest{Amount: decimal.Zero, Narration: "much too long narration"})
	assert.Len(t, errs, 2)
	assert.Contains(t, errs, "amount is required")
}
