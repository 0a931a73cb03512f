// internal/services/payment_service.go
package services

import (
	"fmt"
	"math/big"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"

	"github.com/dreamweave/dreamweave-backend/internal/config"
	"github.com/dreamweave/dreamweave-backend/internal/utils"
)

// PaymentService creates Stripe payment intents for fiat license checkout.
// The on-chain mint happens after the payment succeeds, driven by the client.
type PaymentService struct {
	config *config.Config
}

var ErrPaymentNotConfigured = fmt.Errorf("payment provider is not configured")

type CheckoutRequest struct {
	IPAssetID       string `json:"ipAssetId" validate:"required"`
	LicenseTermsID  string `json:"licenseTermsId" validate:"required"`
	Amount          int64  `json:"amount" validate:"required,min=1"`
	PricePerLicense string `json:"pricePerLicense" validate:"required,decimal_string"`
	BuyerAddress    string `json:"buyerAddress" validate:"omitempty,eth_address"`
}

type CheckoutResult struct {
	PaymentIntentID string `json:"paymentIntentId"`
	ClientSecret    string `json:"clientSecret"`
	AmountCents     int64  `json:"amountCents"`
	Currency        string `json:"currency"`
	TotalPrice      string `json:"totalPrice"`
}

func NewPaymentService(cfg *config.Config) *PaymentService {
	if cfg.Payment.StripeSecretKey != "" {
		stripe.Key = cfg.Payment.StripeSecretKey
	}
	return &PaymentService{config: cfg}
}

// CreateCheckout creates a payment intent covering amount × pricePerLicense.
// The charge amount is computed exactly and rounded up to the nearest cent so
// rounding never undercharges.
func (s *PaymentService) CreateCheckout(req *CheckoutRequest) (*CheckoutResult, error) {
	if s.config.Payment.StripeSecretKey == "" {
		return nil, ErrPaymentNotConfigured
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	totalPrice, err := utils.MulDecimal(req.PricePerLicense, req.Amount)
	if err != nil {
		return nil, fmt.Errorf("pricePerLicense: %w", err)
	}
	cents, err := toCents(totalPrice)
	if err != nil {
		return nil, err
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(cents),
		Currency: stripe.String(s.config.Payment.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("ip_asset_id", req.IPAssetID)
	params.AddMetadata("license_terms_id", req.LicenseTermsID)
	params.AddMetadata("license_amount", fmt.Sprintf("%d", req.Amount))
	if req.BuyerAddress != "" {
		params.AddMetadata("buyer_address", req.BuyerAddress)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &CheckoutResult{
		PaymentIntentID: pi.ID,
		ClientSecret:    pi.ClientSecret,
		AmountCents:     cents,
		Currency:        string(pi.Currency),
		TotalPrice:      totalPrice,
	}, nil
}

// toCents converts a decimal price string to an integer cent amount, rounding
// up any sub-cent remainder.
func toCents(price string) (int64, error) {
	r, err := utils.ParseDecimal(price)
	if err != nil {
		return 0, err
	}
	r.Mul(r, big.NewRat(100, 1))

	cents := new(big.Int).Quo(r.Num(), r.Denom())
	rem := new(big.Int).Rem(r.Num(), r.Denom())
	if rem.Sign() > 0 {
		cents.Add(cents, big.NewInt(1))
	}
	if !cents.IsInt64() {
		return 0, fmt.Errorf("price %s overflows charge amount", price)
	}
	return cents.Int64(), nil
}
