// internal/services/story_service.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dreamweave/dreamweave-backend/internal/config"
	"github.com/dreamweave/dreamweave-backend/internal/utils"
)

// StoryService is the client for the IP-registration gateway: registration,
// license-term attachment, license-token minting, and royalty flows. Amounts
// and on-chain ids arrive as decimal strings and are validated into big.Int
// form here, at the collaborator boundary, never earlier.
type StoryService struct {
	config     *config.Config
	httpClient *http.Client
}

type RegisterIPParams struct {
	WalletAddress   string `json:"walletAddress"`
	IPMetadataURI   string `json:"ipMetadataURI"`
	IPMetadataHash  string `json:"ipMetadataHash"`
	NFTMetadataURI  string `json:"nftMetadataURI"`
	NFTMetadataHash string `json:"nftMetadataHash"`
	SPGNFTContract  string `json:"spgNftContract"`
}

type LicenseTermsParams struct {
	PricePerLicense    string `json:"pricePerLicense" validate:"required,decimal_string"`
	RoyaltyPercent     int    `json:"royaltyPercent" validate:"min=0,max=100"`
	CommercialUse      bool   `json:"commercialUse"`
	DerivativesAllowed bool   `json:"derivativesAllowed"`
	Transferable       bool   `json:"transferable"`
}

func NewStoryService(cfg *config.Config) *StoryService {
	return &StoryService{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// RegisterIP registers a package on the ledger and returns the gateway payload
// verbatim (ipAssetId, tokenId, txHash).
func (s *StoryService) RegisterIP(ctx context.Context, params RegisterIPParams) (map[string]interface{}, error) {
	if params.SPGNFTContract == "" {
		params.SPGNFTContract = s.config.Story.SPGNFTContract
	}
	return s.postJSON(ctx, "/ip/register", params)
}

// AttachLicenseTerms attaches license terms to a registered asset.
func (s *StoryService) AttachLicenseTerms(ctx context.Context, ipAssetID string, terms LicenseTermsParams) (map[string]interface{}, error) {
	if err := utils.ValidateStruct(&terms); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	payload := map[string]interface{}{
		"ipAssetId":       ipAssetID,
		"licenseTemplate": s.config.Story.LicenseTemplate,
		"terms":           terms,
	}
	return s.postJSON(ctx, "/license/attach", payload)
}

// MintLicenseTokens mints license tokens for a buyer. licenseTermsId and
// amount cross the wire as decimal strings; both are converted to big-integer
// form for the gateway call.
func (s *StoryService) MintLicenseTokens(ctx context.Context, ipAssetID, licenseTermsID, amount, receiver string) (map[string]interface{}, error) {
	termsID, err := utils.ParseBigInt(licenseTermsID)
	if err != nil {
		return nil, fmt.Errorf("licenseTermsId: %w", err)
	}
	amountInt, err := utils.ParseBigInt(amount)
	if err != nil {
		return nil, fmt.Errorf("amount: %w", err)
	}

	payload := map[string]interface{}{
		"ipAssetId":      ipAssetID,
		"licenseTermsId": termsID.String(),
		"amount":         amountInt.String(),
		"receiver":       receiver,
	}
	return s.postJSON(ctx, "/license/mint", payload)
}

// GetAssetInfo fetches ledger-side state for one asset.
func (s *StoryService) GetAssetInfo(ctx context.Context, ipAssetID string) (map[string]interface{}, error) {
	return s.getJSON(ctx, "/ip/"+ipAssetID)
}

// GetClaimableRoyalty returns the claimable royalty snapshot list for an asset.
func (s *StoryService) GetClaimableRoyalty(ctx context.Context, ipAssetID string) (map[string]interface{}, error) {
	return s.getJSON(ctx, "/royalty/"+ipAssetID+"/claimable")
}

// ClaimRoyalty claims royalty for the given snapshot ids.
func (s *StoryService) ClaimRoyalty(ctx context.Context, ipAssetID string, snapshotIDs []string) (map[string]interface{}, error) {
	converted := make([]string, 0, len(snapshotIDs))
	for _, id := range snapshotIDs {
		n, err := utils.ParseBigInt(id)
		if err != nil {
			return nil, fmt.Errorf("snapshotId %q: %w", id, err)
		}
		converted = append(converted, n.String())
	}

	payload := map[string]interface{}{
		"ipAssetId":   ipAssetID,
		"snapshotIds": converted,
	}
	return s.postJSON(ctx, "/royalty/claim", payload)
}

func (s *StoryService) postJSON(ctx context.Context, path string, payload interface{}) (map[string]interface{}, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return s.do(ctx, http.MethodPost, path, bytes.NewReader(body))
}

func (s *StoryService) getJSON(ctx context.Context, path string) (map[string]interface{}, error) {
	return s.do(ctx, http.MethodGet, path, nil)
}

func (s *StoryService) do(ctx context.Context, method, path string, body *bytes.Reader) (map[string]interface{}, error) {
	if s.config.Story.GatewayURL == "" {
		return nil, fmt.Errorf("story gateway is not configured")
	}

	url := strings.TrimRight(s.config.Story.GatewayURL, "/") + path
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, url, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, url, nil)
	}
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.config.Story.APIKey != "" {
		req.Header.Set("X-Api-Key", s.config.Story.APIKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("story gateway request: %w", err)
	}
	defer resp.Body.Close()

	var envelope struct {
		Success bool                   `json:"success"`
		Data    map[string]interface{} `json:"data"`
		Error   string                 `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("story gateway decode: %w", err)
	}

	if resp.StatusCode >= 400 || !envelope.Success {
		msg := envelope.Error
		if msg == "" {
			msg = resp.Status
		}
		return nil, fmt.Errorf("story gateway error: %s", msg)
	}

	return envelope.Data, nil
}
