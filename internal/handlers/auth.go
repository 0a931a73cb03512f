// internal/handlers/auth.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/dreamweave/dreamweave-backend/internal/config"
	"github.com/dreamweave/dreamweave-backend/internal/i18n"
	"github.com/dreamweave/dreamweave-backend/internal/utils"
)

// AuthHandler issues wallet-bound session tokens. There is no password flow;
// identity is the wallet address the client signs in with.
type AuthHandler struct {
	config *config.Config
}

func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{config: cfg}
}

type sessionRequest struct {
	UserID        string `json:"userId" validate:"required"`
	WalletAddress string `json:"walletAddress" validate:"required,eth_address"`
}

// CreateSession issues a JWT carrying the user id and wallet address.
func (h *AuthHandler) CreateSession(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
		return
	}

	token, err := utils.GenerateJWT(req.UserID, req.WalletAddress, h.config.JWT.SessionTTL)
	if err != nil {
		logrus.WithError(err).Error("Failed to issue session token")
		utils.InternalErrorResponse(c, nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"token":   token,
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyAuthSessionIssued),
	})
}
