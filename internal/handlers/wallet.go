package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"learnhub/gateway/internal/ids"
	"learnhub/gateway/internal/models"
)

// fetchWallet builds the combined wallet view. Balance and the transaction
// ledger are fetched concurrently with no ordering between them, but both
// must complete before the view is assembled.
func (h HandlerSet) fetchWallet(ctx context.Context, accessToken string) (models.Wallet, error) {
	var wallet models.Wallet

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		balance, err := h.api.Balance(ctx, accessToken)
		if err != nil {
			return err
		}
		wallet.Balance = balance
		return nil
	})
	group.Go(func() error {
		transactions, err := h.api.Transactions(ctx, accessToken)
		if err != nil {
			return err
		}
		wallet.Transactions = transactions
		return nil
	})
	if err := group.Wait(); err != nil {
		return models.Wallet{}, err
	}

	if wallet.Transactions == nil {
		wallet.Transactions = []models.Transaction{}
	}
	return wallet, nil
}

func (h HandlerSet) Wallet(c *gin.Context) {
	token, ok := currentToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication_required"})
		return
	}

	wallet, err := h.fetchWallet(c.Request.Context(), token.AccessToken)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"wallet": wallet})
}

type depositRequest struct {
	Amount int64 `json:"amount_cents" binding:"required,gt=0"`
}

func (h HandlerSet) InitiateDeposit(c *gin.Context) {
	token, ok := currentToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication_required"})
		return
	}

	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"message": "a positive deposit amount is required",
		})
		return
	}

	reference := ids.New()
	deposit, err := h.api.InitiateDeposit(c.Request.Context(), token.AccessToken, req.Amount, reference)
	if err != nil {
		h.fail(c, err)
		return
	}

	// Initiating a deposit is a mutating action, so the wallet mirror is
	// refetched wholesale like after verify and purchase.
	wallet, err := h.fetchWallet(c.Request.Context(), token.AccessToken)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"deposit": deposit,
		"wallet":  wallet,
	})
}

type verifyDepositRequest struct {
	Reference string `json:"reference" binding:"required"`
}

func (h HandlerSet) VerifyDeposit(c *gin.Context) {
	token, ok := currentToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication_required"})
		return
	}

	var req verifyDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"message": "a deposit reference is required",
		})
		return
	}

	transaction, err := h.api.VerifyDeposit(c.Request.Context(), token.AccessToken, req.Reference)
	if err != nil {
		h.fail(c, err)
		return
	}

	wallet, err := h.fetchWallet(c.Request.Context(), token.AccessToken)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transaction": transaction,
		"wallet":      wallet,
	})
}
