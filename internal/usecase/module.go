package usecase

import (
	"go.uber.org/fx"

	"github.com/polkiloo/receiptwatch/internal/merchant"
	"github.com/polkiloo/receiptwatch/internal/policy"
)

// Module provides core business use cases to the fx container.
var Module = fx.Provide(
	NewReceiptUseCase,
	NewOrderUseCase,
	NewMerchantUseCase,
	func(c *merchant.Catalog) policy.MerchantPolicyStore { return c },
)
