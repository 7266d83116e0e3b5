package models

import "time"

// MinerStatus is the lifecycle state of a single miner.
type MinerStatus string

const (
	MinerStatusRunning MinerStatus = "Running"
	MinerStatusStopped MinerStatus = "Stopped"
)

// TransactionType distinguishes ledger entries.
type TransactionType string

const (
	// TransactionTypeCoin is a coin withdrawal against the user's balance.
	TransactionTypeCoin TransactionType = "Coin"
	// TransactionTypeMiner records a miner purchase. The entry itself carries
	// no amount; the purchase debit is handled by the shop flow.
	TransactionTypeMiner TransactionType = "Miner"
)

// TransactionStatus is the settlement state of a ledger entry.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "Pending"
	TransactionStatusCompleted TransactionStatus = "Completed"
)

// Miner accrues coins over time at a fixed rate until it hits capacity.
type Miner struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"`
	HashRate float64 `json:"hash_rate"`
	Capacity float64 `json:"capacity"`
	// CoinsMined is accrued-but-uncollected production, never above Capacity.
	CoinsMined float64     `json:"coins_mined"`
	Status     MinerStatus `json:"status"`
	// LastCollected is the reconciliation watermark: the moment up to which
	// accrual has been applied, not the last time the user collected.
	LastCollected time.Time `json:"last_collected"`
}

// Transaction is an append-only ledger entry. Amount and Date are fixed at
// creation; only Status may change afterwards.
type Transaction struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	Type         TransactionType   `json:"type"`
	Date         time.Time         `json:"date"`
	Status       TransactionStatus `json:"status"`
	Amount       float64           `json:"amount"`
	Counterparty string            `json:"counterparty,omitempty"`
}

// User is the persisted account document. Miners keep insertion order, which
// is creation order.
type User struct {
	ID              string        `json:"id"`
	Username        string        `json:"username"`
	Email           string        `json:"email"`
	Balance         float64       `json:"balance"`
	TotalCoinsMined float64       `json:"total_coins_mined"`
	Miners          []Miner       `json:"miners"`
	Transactions    []Transaction `json:"transactions"`
	PayoutAddress   string        `json:"payout_address,omitempty"`
	ReferredBy      string        `json:"referred_by,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// FindMiner returns the miner with the given id, or nil.
func (u *User) FindMiner(id string) *Miner {
	for i := range u.Miners {
		if u.Miners[i].ID == id {
			return &u.Miners[i]
		}
	}
	return nil
}

// FindTransaction returns the transaction with the given id, or nil.
func (u *User) FindTransaction(id string) *Transaction {
	for i := range u.Transactions {
		if u.Transactions[i].ID == id {
			return &u.Transactions[i]
		}
	}
	return nil
}

// UserResponse is the public view of a user returned by the API. Payout and
// referral bookkeeping stay internal.
type UserResponse struct {
	ID              string        `json:"id"`
	Username        string        `json:"username"`
	Email           string        `json:"email"`
	Balance         float64       `json:"balance"`
	TotalCoinsMined float64       `json:"total_coins_mined"`
	Miners          []Miner       `json:"miners"`
	Transactions    []Transaction `json:"transactions"`
	CreatedAt       time.Time     `json:"created_at"`
}
