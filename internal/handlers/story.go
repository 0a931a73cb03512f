// internal/handlers/story.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dreamweave/dreamweave-backend/internal/i18n"
	"github.com/dreamweave/dreamweave-backend/internal/models"
	"github.com/dreamweave/dreamweave-backend/internal/services"
	"github.com/dreamweave/dreamweave-backend/internal/store"
	"github.com/dreamweave/dreamweave-backend/internal/utils"
)

// StoryHandler covers the on-chain side of a package's lifecycle: metadata
// pinning, ledger registration, license terms, license sales, and royalties.
type StoryHandler struct {
	store    store.Store
	dreams   *services.DreamService
	ipfs     *services.IPFSService
	story    *services.StoryService
	licenses *services.LicenseService
	payments *services.PaymentService
}

func NewStoryHandler(
	st store.Store,
	dreams *services.DreamService,
	ipfs *services.IPFSService,
	story *services.StoryService,
	licenses *services.LicenseService,
	payments *services.PaymentService,
) *StoryHandler {
	return &StoryHandler{
		store:    st,
		dreams:   dreams,
		ipfs:     ipfs,
		story:    story,
		licenses: licenses,
		payments: payments,
	}
}

// PrepareMetadata pins the IP and NFT metadata documents for a completed
// dream. Packages still processing (or failed) cannot be registered.
func (h *StoryHandler) PrepareMetadata(c *gin.Context) {
	var req struct {
		DreamID string `json:"dreamId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}
	id, err := uuid.Parse(req.DreamID)
	if err != nil {
		utils.BadRequestResponse(c, "invalid dream id", nil)
		return
	}

	dream, err := h.dreams.GetDream(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.NotFoundResponse(c, "dream")
			return
		}
		logrus.WithError(err).Error("Failed to load dream for metadata")
		utils.InternalErrorResponse(c, nil)
		return
	}
	if dream.Status != models.DreamStatusCompleted {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyDreamNotCompleted), nil)
		return
	}

	result, err := h.ipfs.PrepareDreamMetadata(c.Request.Context(), dream)
	if err != nil {
		logrus.WithError(err).WithField("dream_id", id).Error("Metadata pinning failed")
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"ipMetadataCid":  result.IPMetadataCID,
		"nftMetadataCid": result.NFTMetadataCID,
		"ipMetadataURI":  result.IPMetadataURI,
		"nftMetadataURI": result.NFTMetadataURI,
		"message":        i18n.T(utils.GetLangFromContext(c), i18n.KeyStoryMetadataPrepared),
	})
}

// Register registers a completed dream on the ledger and attaches the
// resulting asset id and owner to the stored package.
func (h *StoryHandler) Register(c *gin.Context) {
	var req struct {
		DreamID         string `json:"dreamId" binding:"required"`
		WalletAddress   string `json:"walletAddress" binding:"required"`
		IPMetadataURI   string `json:"ipMetadataURI"`
		IPMetadataHash  string `json:"ipMetadataHash"`
		NFTMetadataURI  string `json:"nftMetadataURI"`
		NFTMetadataHash string `json:"nftMetadataHash"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}
	id, err := uuid.Parse(req.DreamID)
	if err != nil {
		utils.BadRequestResponse(c, "invalid dream id", nil)
		return
	}

	dream, err := h.dreams.GetDream(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.NotFoundResponse(c, "dream")
			return
		}
		logrus.WithError(err).Error("Failed to load dream for registration")
		utils.InternalErrorResponse(c, nil)
		return
	}
	if dream.Status != models.DreamStatusCompleted {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyDreamNotCompleted), nil)
		return
	}
	if dream.Registered() {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyStoryAlreadyRegistered), nil)
		return
	}

	data, err := h.story.RegisterIP(c.Request.Context(), services.RegisterIPParams{
		WalletAddress:   req.WalletAddress,
		IPMetadataURI:   req.IPMetadataURI,
		IPMetadataHash:  req.IPMetadataHash,
		NFTMetadataURI:  req.NFTMetadataURI,
		NFTMetadataHash: req.NFTMetadataHash,
	})
	if err != nil {
		logrus.WithError(err).WithField("dream_id", id).Error("Ledger registration failed")
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	if assetID, ok := data["ipAssetId"].(string); ok && assetID != "" {
		if err := h.store.AttachRegistration(c.Request.Context(), id, assetID, req.WalletAddress); err != nil {
			logrus.WithError(err).WithField("dream_id", id).Error("Failed to attach registration")
		}
	}

	utils.SuccessResponse(c, gin.H{
		"data":    data,
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyStoryRegistered),
	})
}

// GetInfo proxies ledger-side asset state.
func (h *StoryHandler) GetInfo(c *gin.Context) {
	assetID := c.Query("ipAssetId")
	if assetID == "" {
		utils.BadRequestResponse(c, "ipAssetId is required", nil)
		return
	}

	data, err := h.story.GetAssetInfo(c.Request.Context(), assetID)
	if err != nil {
		logrus.WithError(err).WithField("ip_asset_id", assetID).Error("Asset info fetch failed")
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"data": data})
}

// AttachLicense attaches license terms to a registered asset.
func (h *StoryHandler) AttachLicense(c *gin.Context) {
	var req struct {
		IPAssetID string                      `json:"ipAssetId" binding:"required"`
		Terms     services.LicenseTermsParams `json:"terms" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	data, err := h.story.AttachLicenseTerms(c.Request.Context(), req.IPAssetID, req.Terms)
	if err != nil {
		logrus.WithError(err).WithField("ip_asset_id", req.IPAssetID).Error("License attach failed")
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"data":    data,
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyLicenseAttached),
	})
}

// MintLicense mints license tokens for a buyer on the ledger.
func (h *StoryHandler) MintLicense(c *gin.Context) {
	var req struct {
		IPAssetID      string `json:"ipAssetId" binding:"required"`
		LicenseTermsID string `json:"licenseTermsId" binding:"required"`
		Amount         string `json:"amount" binding:"required"`
		Receiver       string `json:"receiver" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	data, err := h.story.MintLicenseTokens(c.Request.Context(), req.IPAssetID, req.LicenseTermsID, req.Amount, req.Receiver)
	if err != nil {
		logrus.WithError(err).WithField("ip_asset_id", req.IPAssetID).Error("License mint failed")
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"data":    data,
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyLicenseMinted),
	})
}

// RecordPurchase records an off-chain license sale for stats.
func (h *StoryHandler) RecordPurchase(c *gin.Context) {
	var req services.RecordPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
		return
	}

	purchase, err := h.licenses.RecordPurchase(c.Request.Context(), &req)
	if err != nil {
		logrus.WithError(err).Error("Failed to record license purchase")
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"purchase": purchase,
		"message":  i18n.T(utils.GetLangFromContext(c), i18n.KeyLicensePurchased),
	})
}

// GetLicenseStats aggregates an owner's license sales.
func (h *StoryHandler) GetLicenseStats(c *gin.Context) {
	owner := c.Query("ownerAddress")
	if owner == "" {
		utils.BadRequestResponse(c, "ownerAddress is required", nil)
		return
	}

	stats, err := h.licenses.GetStats(c.Request.Context(), owner, c.Query("ipAssetId"))
	if err != nil {
		logrus.WithError(err).Error("Failed to aggregate license stats")
		utils.InternalErrorResponse(c, nil)
		return
	}

	utils.SuccessResponse(c, gin.H{"stats": stats})
}

// Checkout creates a fiat payment intent for a license purchase.
func (h *StoryHandler) Checkout(c *gin.Context) {
	var req services.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
		return
	}

	result, err := h.payments.CreateCheckout(&req)
	if err != nil {
		if errors.Is(err, services.ErrPaymentNotConfigured) {
			utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyPaymentNotConfigured), nil)
			return
		}
		logrus.WithError(err).Error("Checkout failed")
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"checkout": result,
		"message":  i18n.T(utils.GetLangFromContext(c), i18n.KeyPaymentCreated),
	})
}

// GetClaimableRoyalty lists claimable royalty snapshots for an asset.
func (h *StoryHandler) GetClaimableRoyalty(c *gin.Context) {
	assetID := c.Param("ipAssetId")
	if assetID == "" {
		utils.BadRequestResponse(c, "ipAssetId is required", nil)
		return
	}

	data, err := h.story.GetClaimableRoyalty(c.Request.Context(), assetID)
	if err != nil {
		logrus.WithError(err).WithField("ip_asset_id", assetID).Error("Royalty fetch failed")
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"data":    data,
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyRoyaltyFetched),
	})
}

// ClaimRoyalty claims royalty for the given snapshot ids.
func (h *StoryHandler) ClaimRoyalty(c *gin.Context) {
	var req struct {
		IPAssetID   string   `json:"ipAssetId" binding:"required"`
		SnapshotIDs []string `json:"snapshotIds" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	data, err := h.story.ClaimRoyalty(c.Request.Context(), req.IPAssetID, req.SnapshotIDs)
	if err != nil {
		logrus.WithError(err).WithField("ip_asset_id", req.IPAssetID).Error("Royalty claim failed")
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"data":    data,
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyRoyaltyClaimed),
	})
}
