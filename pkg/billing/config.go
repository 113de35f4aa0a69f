package billing

import "github.com/dmitrymomot/formgate/pkg/tier"

// PaddleConfig holds webhook and price settings. An empty secret leaves the webhook
// endpoint answering 500 until configured.
type PaddleConfig struct {
	WebhookSecret     string `env:"PADDLE_WEBHOOK_SECRET"`
	StarterPriceID    string `env:"PADDLE_PRICE_STARTER"`
	ProPriceID        string `env:"PADDLE_PRICE_PRO"`
	EnterprisePriceID string `env:"PADDLE_PRICE_ENTERPRISE"`
}

// PriceMap builds the price id to tier mapping.
func (c PaddleConfig) PriceMap() tier.PriceMap {
	return tier.NewPriceMap(c.StarterPriceID, c.ProPriceID, c.EnterprisePriceID)
}
