// internal/models/license.go
package models

import "time"

// LicensePurchase records one off-chain license sale for a registered IP asset.
// Rows are immutable after creation; statistics are aggregated from them.
// Prices are carried as decimal strings end to end so on-chain precision is
// never lost to float conversion.
type LicensePurchase struct {
	BaseModel
	IPAssetID       string    `json:"ipAssetId" gorm:"size:66;not null;index"`
	LicenseTermsID  string    `json:"licenseTermsId" gorm:"size:78;not null"`
	Amount          int64     `json:"amount" gorm:"not null"`
	PricePerLicense string    `json:"pricePerLicense" gorm:"size:78;not null"`
	TotalPrice      string    `json:"totalPrice" gorm:"size:78;not null"`
	BuyerAddress    string    `json:"buyerAddress" gorm:"size:42;index"`
	OwnerAddress    string    `json:"ownerAddress" gorm:"size:42;index"`
	PurchasedAt     time.Time `json:"purchasedAt"`
}
