package models

import "time"

type TransactionType string

const (
	TransactionDeposit  TransactionType = "deposit"
	TransactionPurchase TransactionType = "purchase"
)

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
)

// Transaction is one entry in the wallet ledger, ordered newest first by
// the platform API.
type Transaction struct {
	ID        string            `json:"id"`
	Type      TransactionType   `json:"type"`
	Status    TransactionStatus `json:"status"`
	Amount    int64             `json:"amount_cents"`
	Reference string            `json:"reference"`
	CreatedAt time.Time         `json:"created_at"`
}

// Wallet is the server-tracked balance and ledger mirrored read-only into
// the gateway. It is refetched wholesale after any mutating action.
type Wallet struct {
	Balance      int64         `json:"balance_cents"`
	Transactions []Transaction `json:"transactions"`
}
