package wallet

import (
	"errors"
	"time"
)

const (
	TransactionTypeContestWin = "contest_win"

	TransactionStatusCompleted = "completed"
)

// ErrAlreadyCredited is returned by CreditContestWin when a completed
// transaction with the same idempotency reference already exists. The
// check runs inside the credit transaction, so concurrent settlement
// runs cannot double-pay.
var ErrAlreadyCredited = errors.New("contest win already credited")

// Transaction is one append-only wallet ledger row.
type Transaction struct {
	ID        string
	UserID    string
	Amount    float64
	Type      string
	Status    string
	Reference string
	CreatedAt time.Time
}

// FailureRecord captures a payout that could not complete after bounded
// retries, with enough context to replay it out of band.
type FailureRecord struct {
	ID        string
	UserID    string
	ContestID string
	EntryID   string
	Rank      int
	Amount    float64
	Reason    string
	CreatedAt time.Time
}

// CreditInput is the atomic payout unit: wallet credit, entry win
// amount, and ledger row succeed or fail together.
type CreditInput struct {
	TransactionID string
	UserID        string
	ContestID     string
	EntryID       string
	Rank          int
	Amount        float64
	Reference     string
}
