// internal/services/license_service_test.go
package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamweave/dreamweave-backend/internal/models"
	"github.com/dreamweave/dreamweave-backend/internal/store"
)

const (
	ownerAddr = "0x1111111111111111111111111111111111111111"
	buyerAddr = "0x2222222222222222222222222222222222222222"
	assetID   = "0xAbCdEf0000000000000000000000000000000001"
)

func registeredDream(t *testing.T, mem *store.MemoryStore) *models.Dream {
	t.Helper()
	ctx := context.Background()
	dream := &models.Dream{
		UserID:    "user-1",
		DreamText: "a dream long enough to pass validation",
		Status:    models.DreamStatusCompleted,
	}
	require.NoError(t, mem.CreateDream(ctx, dream))
	require.NoError(t, mem.AttachRegistration(ctx, dream.ID, assetID, ownerAddr))
	return dream
}

func TestRecordPurchaseComputesTotalAndOwner(t *testing.T) {
	mem := store.NewMemoryStore()
	registeredDream(t, mem)
	svc := NewLicenseService(mem)

	purchase, err := svc.RecordPurchase(context.Background(), &RecordPurchaseRequest{
		IPAssetID:       "0xabcdef0000000000000000000000000000000001", // different casing
		LicenseTermsID:  "7",
		Amount:          3,
		PricePerLicense: "0.1",
		BuyerAddress:    buyerAddr,
	})
	require.NoError(t, err)

	assert.Equal(t, "0.3", purchase.TotalPrice)
	assert.Equal(t, ownerAddr, purchase.OwnerAddress)
}

func TestRecordPurchaseUnknownAssetLeavesOwnerEmpty(t *testing.T) {
	svc := NewLicenseService(store.NewMemoryStore())

	purchase, err := svc.RecordPurchase(context.Background(), &RecordPurchaseRequest{
		IPAssetID:       "0x9999999999999999999999999999999999999999",
		LicenseTermsID:  "7",
		Amount:          1,
		PricePerLicense: "1",
	})
	require.NoError(t, err)
	assert.Empty(t, purchase.OwnerAddress)
}

func TestLicenseStatsAggregation(t *testing.T) {
	mem := store.NewMemoryStore()
	registeredDream(t, mem)
	svc := NewLicenseService(mem)
	ctx := context.Background()

	for _, p := range []struct {
		amount int64
		price  string
	}{
		{2, "0.1"},
		{3, "0.1"},
	} {
		_, err := svc.RecordPurchase(ctx, &RecordPurchaseRequest{
			IPAssetID:       assetID,
			LicenseTermsID:  "7",
			Amount:          p.amount,
			PricePerLicense: p.price,
			BuyerAddress:    buyerAddr,
		})
		require.NoError(t, err)
	}

	stats, err := svc.GetStats(ctx, ownerAddr, "")
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.TotalSales)
	assert.Equal(t, int64(5), stats.TotalAmount)
	assert.Equal(t, "0.5", stats.TotalRevenue)
	require.Len(t, stats.StatsByIPAsset, 1)

	asset := stats.StatsByIPAsset[assetID]
	require.NotNil(t, asset)
	assert.Equal(t, int64(2), asset.TotalSales)
	assert.Equal(t, int64(5), asset.TotalAmount)
	assert.Equal(t, "0.5", asset.TotalRevenue)
}

func TestLicenseStatsFilterByAsset(t *testing.T) {
	mem := store.NewMemoryStore()
	registeredDream(t, mem)
	svc := NewLicenseService(mem)
	ctx := context.Background()

	_, err := svc.RecordPurchase(ctx, &RecordPurchaseRequest{
		IPAssetID:       assetID,
		LicenseTermsID:  "7",
		Amount:          1,
		PricePerLicense: "1",
	})
	require.NoError(t, err)

	stats, err := svc.GetStats(ctx, ownerAddr, "0x0000000000000000000000000000000000000000")
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalSales)
	assert.Equal(t, "0", stats.TotalRevenue)
	assert.Empty(t, stats.StatsByIPAsset)
}
