package upstream

import (
	"context"

	"learnhub/gateway/internal/models"
)

func (c *Client) Balance(ctx context.Context, accessToken string) (int64, error) {
	var out struct {
		Balance int64 `json:"balance_cents"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(&out).
		Get("/wallet/balance")
	if err := c.check(resp, err); err != nil {
		return 0, err
	}
	return out.Balance, nil
}

func (c *Client) Transactions(ctx context.Context, accessToken string) ([]models.Transaction, error) {
	var out struct {
		Transactions []models.Transaction `json:"transactions"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(&out).
		Get("/wallet/transactions")
	if err := c.check(resp, err); err != nil {
		return nil, err
	}
	return out.Transactions, nil
}

// Deposit is an initiated top-up awaiting payment and verification.
type Deposit struct {
	Reference  string `json:"reference"`
	PaymentURL string `json:"payment_url"`
	Status     string `json:"status"`
}

// InitiateDeposit opens a top-up for the given amount. The reference ties
// the later verify call to this deposit.
func (c *Client) InitiateDeposit(ctx context.Context, accessToken string, amount int64, reference string) (Deposit, error) {
	var out Deposit
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetBody(map[string]any{
			"amount_cents": amount,
			"reference":    reference,
		}).
		SetResult(&out).
		Post("/wallet/deposits")
	if err := c.check(resp, err); err != nil {
		return Deposit{}, err
	}
	return out, nil
}

// VerifyDeposit asks the platform to confirm a deposit with the payment
// provider and returns the settled ledger entry.
func (c *Client) VerifyDeposit(ctx context.Context, accessToken, reference string) (models.Transaction, error) {
	var out models.Transaction
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetBody(map[string]string{"reference": reference}).
		SetResult(&out).
		Post("/wallet/deposits/verify")
	if err := c.check(resp, err); err != nil {
		return models.Transaction{}, err
	}
	return out, nil
}
