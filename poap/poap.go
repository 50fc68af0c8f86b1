// Package poap defines the data structures exchanged by the mint pipeline:
// transaction snapshots, mint status, reservations and the minted token.
package poap

import "time"

// TransactionStatus is the on-chain state of a mint transaction.
type TransactionStatus string

const (
	// StatusPending means the transaction has not been settled yet.
	StatusPending TransactionStatus = "pending"
	// StatusPassed means the transaction succeeded on-chain.
	StatusPassed TransactionStatus = "passed"
	// StatusFailed means the transaction was rejected or reverted.
	StatusFailed TransactionStatus = "failed"
)

// Transaction is a point-in-time snapshot of a mint transaction.
// Each poll produces a fresh snapshot; pollers never mutate it.
type Transaction struct {
	// Status is the reported state. Values other than the three known
	// statuses may appear and are treated as not yet final.
	Status TransactionStatus `json:"status"`

	// TxHash is set once Status is StatusPassed.
	TxHash string `json:"tx_hash,omitempty"`
}

// MintTransaction is the final result of a successful mint transaction.
type MintTransaction struct {
	TxHash string
}

// MintStatus describes a mint code after indexing.
type MintStatus struct {
	// Minted reports whether the code has been claimed.
	Minted bool

	// IsActive reports whether the code can still be used.
	IsActive bool

	// PoapID is the minted token id. Nil until the token has been indexed.
	PoapID *int64
}

// Indexed reports whether the minted token is queryable.
func (s MintStatus) Indexed() bool {
	return s.PoapID != nil
}

// POAP is a minted token together with the drop it belongs to.
type POAP struct {
	ID               int64
	CollectorAddress string
	TransferCount    int64
	MintedOn         time.Time
	DropID           int64
	ImageURL         string
	City             string
	Country          string
	Description      string
	StartDate        time.Time
	EndDate          time.Time
	Name             string
}

// Reservation is a POAP reserved for an email address, to be claimed later.
type Reservation struct {
	Email       string
	DropID      int64
	ImageURL    string
	City        string
	Country     string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	Name        string
}
