package wallet

import "context"

type Repository interface {
	// FindCompletedTransaction looks up a completed transaction by user,
	// type, and reference. (user, contest, rank) is the logical payout
	// idempotency key; the reference string is its physical encoding.
	FindCompletedTransaction(ctx context.Context, userID, txType, reference string) (Transaction, bool, error)
	GetTransaction(ctx context.Context, id string) (Transaction, bool, error)
	// CreditContestWin performs the wallet credit, contest entry win
	// amount update, and transaction insert as one atomic unit. Returns
	// ErrAlreadyCredited when the reference was already paid.
	CreditContestWin(ctx context.Context, input CreditInput) error
	Balance(ctx context.Context, userID string) (float64, error)

	AppendFailure(ctx context.Context, record FailureRecord) error
	ListFailuresByContest(ctx context.Context, contestID string) ([]FailureRecord, error)
}
