// internal/services/ipfs_service.go
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
	"github.com/dreamweave/dreamweave-backend/internal/models"
)

// IPFSService pins metadata documents through the Pinata pinning API.
type IPFSService struct {
	config     *config.Config
	httpClient *http.Client
}

// MetadataResult carries the two content identifiers produced for a package.
type MetadataResult struct {
	IPMetadataCID  string `json:"ipMetadataCid"`
	NFTMetadataCID string `json:"nftMetadataCid"`
	IPMetadataURI  string `json:"ipMetadataURI"`
	NFTMetadataURI string `json:"nftMetadataURI"`
}

func NewIPFSService(cfg *config.Config) *IPFSService {
	return &IPFSService{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// PrepareDreamMetadata builds and pins the IP metadata and NFT metadata
// documents for a completed dream.
func (s *IPFSService) PrepareDreamMetadata(ctx context.Context, dream *models.Dream) (*MetadataResult, error) {
	if s.config.IPFS.PinataJWT == "" {
		return nil, fmt.Errorf("IPFS pinning is not configured")
	}

	title := "Untitled Dream"
	description := ""
	if dream.Analysis != nil {
		if dream.Analysis.Title != "" {
			title = dream.Analysis.Title
		}
		description = dream.Analysis.Summary
	}

	coverURL := ""
	for _, v := range dream.Visuals {
		if v.Kind == "cover" {
			coverURL = v.URL
			break
		}
	}

	ipMetadata := map[string]interface{}{
		"title":       title,
		"description": description,
		"createdAt":   dream.CreatedAt.Unix(),
		"image":       coverURL,
		"mediaHash":   dream.ContentHash,
		"creators": []map[string]interface{}{
			{
				"name":    dream.UserID,
				"address": dream.CreatorAddress,
			},
		},
		"tags": dream.Tags,
	}

	attributes := make([]map[string]string, 0)
	if dream.Analysis != nil {
		for _, genre := range dream.Analysis.Genres {
			attributes = append(attributes, map[string]string{"trait_type": "genre", "value": genre})
		}
		for _, tone := range dream.Analysis.Tones {
			attributes = append(attributes, map[string]string{"trait_type": "tone", "value": tone})
		}
	}
	nftMetadata := map[string]interface{}{
		"name":        title,
		"description": description,
		"image":       coverURL,
		"attributes":  attributes,
	}

	ipCID, err := s.PinJSON(ctx, fmt.Sprintf("dream-%s-ip", dream.ID), ipMetadata)
	if err != nil {
		return nil, fmt.Errorf("pin ip metadata: %w", err)
	}
	nftCID, err := s.PinJSON(ctx, fmt.Sprintf("dream-%s-nft", dream.ID), nftMetadata)
	if err != nil {
		return nil, fmt.Errorf("pin nft metadata: %w", err)
	}

	return &MetadataResult{
		IPMetadataCID:  ipCID,
		NFTMetadataCID: nftCID,
		IPMetadataURI:  "ipfs://" + ipCID,
		NFTMetadataURI: "ipfs://" + nftCID,
	}, nil
}

// PinJSON pins one JSON document and returns its CID.
func (s *IPFSService) PinJSON(ctx context.Context, name string, content interface{}) (string, error) {
	payload := map[string]interface{}{
		"pinataContent": content,
		"pinataMetadata": map[string]string{
			"name": name,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	url := strings.TrimRight(s.config.IPFS.PinataBaseURL, "/") + "/pinning/pinJSONToIPFS"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.IPFS.PinataJWT)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("pinata request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("pinata api error: %s", resp.Status)
	}

	var pinResp struct {
		IpfsHash string `json:"IpfsHash"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&pinResp); err != nil {
		return "", fmt.Errorf("pinata decode: %w", err)
	}
	if pinResp.IpfsHash == "" {
		return "", fmt.Errorf("pinata returned no hash")
	}
	return pinResp.IpfsHash, nil
}
