package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/wallet"
)

type entryWinUpdater interface {
	UpdateEntryWinAmount(ctx context.Context, entryID string, amount float64) error
}

// WalletRepository keeps an in-memory ledger. CreditContestWin holds
// the write lock for the whole credit, matching the all-or-nothing
// semantics of the database transaction it stands in for.
type WalletRepository struct {
	mu           sync.RWMutex
	transactions map[string]wallet.Transaction
	balances     map[string]float64
	failures     []wallet.FailureRecord
	entries      entryWinUpdater
	now          func() time.Time

	// FailNextCredits fails that many upcoming CreditContestWin calls
	// before any state changes, for transient-failure tests.
	FailNextCredits int
}

func NewWalletRepository(entries entryWinUpdater) *WalletRepository {
	return &WalletRepository{
		transactions: make(map[string]wallet.Transaction),
		balances:     make(map[string]float64),
		entries:      entries,
		now:          time.Now,
	}
}

func (r *WalletRepository) FindCompletedTransaction(_ context.Context, userID, txType, reference string) (wallet.Transaction, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, tx := range r.transactions {
		if tx.UserID == userID && tx.Type == txType && tx.Reference == reference && tx.Status == wallet.TransactionStatusCompleted {
			return tx, true, nil
		}
	}
	return wallet.Transaction{}, false, nil
}

func (r *WalletRepository) GetTransaction(_ context.Context, id string) (wallet.Transaction, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tx, ok := r.transactions[id]
	if !ok {
		return wallet.Transaction{}, false, nil
	}
	return tx, true, nil
}

func (r *WalletRepository) CreditContestWin(ctx context.Context, input wallet.CreditInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailNextCredits > 0 {
		r.FailNextCredits--
		return errors.New("simulated transient credit failure")
	}

	for _, tx := range r.transactions {
		if tx.UserID == input.UserID && tx.Type == wallet.TransactionTypeContestWin &&
			tx.Reference == input.Reference && tx.Status == wallet.TransactionStatusCompleted {
			return wallet.ErrAlreadyCredited
		}
	}
	if _, exists := r.transactions[input.TransactionID]; exists {
		return fmt.Errorf("transaction %s already exists", input.TransactionID)
	}

	r.transactions[input.TransactionID] = wallet.Transaction{
		ID:        input.TransactionID,
		UserID:    input.UserID,
		Amount:    input.Amount,
		Type:      wallet.TransactionTypeContestWin,
		Status:    wallet.TransactionStatusCompleted,
		Reference: input.Reference,
		CreatedAt: r.now().UTC(),
	}
	r.balances[input.UserID] += input.Amount

	if r.entries != nil {
		if err := r.entries.UpdateEntryWinAmount(ctx, input.EntryID, input.Amount); err != nil {
			// Roll the credit back so the caller can retry cleanly.
			delete(r.transactions, input.TransactionID)
			r.balances[input.UserID] -= input.Amount
			return fmt.Errorf("update entry win amount: %w", err)
		}
	}
	return nil
}

func (r *WalletRepository) Balance(_ context.Context, userID string) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.balances[userID], nil
}

func (r *WalletRepository) AppendFailure(_ context.Context, record wallet.FailureRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.failures = append(r.failures, record)
	return nil
}

func (r *WalletRepository) ListFailuresByContest(_ context.Context, contestID string) ([]wallet.FailureRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]wallet.FailureRecord, 0)
	for _, f := range r.failures {
		if f.ContestID == contestID {
			out = append(out, f)
		}
	}
	return out, nil
}

// Transactions returns a copy of the ledger for test assertions.
func (r *WalletRepository) Transactions() []wallet.Transaction {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]wallet.Transaction, 0, len(r.transactions))
	for _, tx := range r.transactions {
		out = append(out, tx)
	}
	return out
}
