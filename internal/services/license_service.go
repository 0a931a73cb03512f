// internal/services/license_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/dreamweave/dreamweave-backend/internal/models"
	"github.com/dreamweave/dreamweave-backend/internal/store"
	"github.com/dreamweave/dreamweave-backend/internal/utils"
)

// LicenseService records off-chain license purchases and aggregates per-owner
// sales statistics. On-chain minting goes through StoryService; this path
// never touches the ledger.
type LicenseService struct {
	store store.Store
}

type RecordPurchaseRequest struct {
	IPAssetID       string `json:"ipAssetId" validate:"required"`
	LicenseTermsID  string `json:"licenseTermsId" validate:"required"`
	Amount          int64  `json:"amount" validate:"required,min=1"`
	PricePerLicense string `json:"pricePerLicense" validate:"required,decimal_string"`
	BuyerAddress    string `json:"buyerAddress" validate:"omitempty,eth_address"`
}

type AssetStats struct {
	TotalSales   int64  `json:"totalSales"`
	TotalAmount  int64  `json:"totalAmount"`
	TotalRevenue string `json:"totalRevenue"`
}

type LicenseStats struct {
	TotalSales     int64                  `json:"totalSales"`
	TotalAmount    int64                  `json:"totalAmount"`
	TotalRevenue   string                 `json:"totalRevenue"`
	StatsByIPAsset map[string]*AssetStats `json:"statsByIpAsset"`
}

func NewLicenseService(st store.Store) *LicenseService {
	return &LicenseService{store: st}
}

// RecordPurchase computes the total from the decimal-string unit price and
// resolves the package owner by case-insensitive match on the ledger asset id.
func (s *LicenseService) RecordPurchase(ctx context.Context, req *RecordPurchaseRequest) (*models.LicensePurchase, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	totalPrice, err := utils.MulDecimal(req.PricePerLicense, req.Amount)
	if err != nil {
		return nil, fmt.Errorf("pricePerLicense: %w", err)
	}

	ownerAddress := ""
	dream, err := s.store.FindDreamByAssetID(ctx, req.IPAssetID)
	switch {
	case err == nil:
		ownerAddress = dream.OwnerAddress
		if ownerAddress == "" {
			ownerAddress = dream.CreatorAddress
		}
	case errors.Is(err, store.ErrNotFound):
		logrus.WithField("ip_asset_id", req.IPAssetID).
			Warn("License purchase for unknown asset, owner left empty")
	default:
		return nil, fmt.Errorf("owner lookup: %w", err)
	}

	purchase := &models.LicensePurchase{
		IPAssetID:       req.IPAssetID,
		LicenseTermsID:  req.LicenseTermsID,
		Amount:          req.Amount,
		PricePerLicense: req.PricePerLicense,
		TotalPrice:      totalPrice,
		BuyerAddress:    req.BuyerAddress,
		OwnerAddress:    ownerAddress,
	}

	if err := s.store.CreatePurchase(ctx, purchase); err != nil {
		return nil, fmt.Errorf("failed to record purchase: %w", err)
	}
	return purchase, nil
}

// GetStats aggregates an owner's sales, optionally narrowed to one asset.
// Revenue is summed exactly on the decimal strings.
func (s *LicenseService) GetStats(ctx context.Context, ownerAddress, ipAssetID string) (*LicenseStats, error) {
	purchases, err := s.store.ListPurchasesByOwner(ctx, ownerAddress, ipAssetID)
	if err != nil {
		return nil, err
	}

	stats := &LicenseStats{
		TotalRevenue:   "0",
		StatsByIPAsset: make(map[string]*AssetStats),
	}

	for _, p := range purchases {
		stats.TotalSales++
		stats.TotalAmount += p.Amount
		if stats.TotalRevenue, err = utils.AddDecimal(stats.TotalRevenue, p.TotalPrice); err != nil {
			return nil, fmt.Errorf("revenue sum: %w", err)
		}

		asset, ok := stats.StatsByIPAsset[p.IPAssetID]
		if !ok {
			asset = &AssetStats{TotalRevenue: "0"}
			stats.StatsByIPAsset[p.IPAssetID] = asset
		}
		asset.TotalSales++
		asset.TotalAmount += p.Amount
		if asset.TotalRevenue, err = utils.AddDecimal(asset.TotalRevenue, p.TotalPrice); err != nil {
			return nil, fmt.Errorf("revenue sum: %w", err)
		}
	}

	return stats, nil
}
