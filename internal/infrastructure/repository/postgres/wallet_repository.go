package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/wallet"
	qb "github.com/sunnygoyal1983/play11-w-sub000/internal/platform/querybuilder"
)

type WalletRepository struct {
	db *sqlx.DB
}

func NewWalletRepository(db *sqlx.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

func (r *WalletRepository) FindCompletedTransaction(ctx context.Context, userID, txType, reference string) (wallet.Transaction, bool, error) {
	query, args, err := qb.Select("*").From("transactions").
		Where(
			qb.Eq("user_id", userID),
			qb.Eq("tx_type", txType),
			qb.Eq("reference", reference),
			qb.Eq("status", wallet.TransactionStatusCompleted),
		).
		ToSQL()
	if err != nil {
		return wallet.Transaction{}, false, fmt.Errorf("build select completed transaction query: %w", err)
	}

	var row transactionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return wallet.Transaction{}, false, nil
		}
		return wallet.Transaction{}, false, fmt.Errorf("select completed transaction: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *WalletRepository) GetTransaction(ctx context.Context, id string) (wallet.Transaction, bool, error) {
	query, args, err := qb.Select("*").From("transactions").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return wallet.Transaction{}, false, fmt.Errorf("build select transaction query: %w", err)
	}

	var row transactionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return wallet.Transaction{}, false, nil
		}
		return wallet.Transaction{}, false, fmt.Errorf("select transaction: %w", err)
	}
	return row.toDomain(), true, nil
}

// CreditContestWin writes the ledger row, wallet balance, and entry win
// amount in one transaction. The unique index on completed
// (user_id, tx_type, reference) rows is the idempotency guard: a rerun
// hits a unique violation and maps to ErrAlreadyCredited, leaving the
// balance untouched.
func (r *WalletRepository) CreditContestWin(ctx context.Context, input wallet.CreditInput) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx credit contest win: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	insertModel := transactionTableModel{
		ID:        input.TransactionID,
		UserID:    input.UserID,
		Amount:    input.Amount,
		Type:      wallet.TransactionTypeContestWin,
		Status:    wallet.TransactionStatusCompleted,
		Reference: input.Reference,
		CreatedAt: time.Now().UTC(),
	}
	txQuery, txArgs, err := qb.InsertModel("transactions", insertModel, "")
	if err != nil {
		return fmt.Errorf("build insert transaction query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, txQuery, txArgs...); err != nil {
		if isUniqueViolation(err) {
			return wallet.ErrAlreadyCredited
		}
		return fmt.Errorf("insert transaction reference=%q: %w", input.Reference, err)
	}

	creditQuery, creditArgs, err := qb.InsertInto("wallets").
		Columns("user_id", "balance", "updated_at").
		Values(input.UserID, input.Amount, time.Now().UTC()).
		Suffix(`ON CONFLICT (user_id)
DO UPDATE SET
    balance = wallets.balance + EXCLUDED.balance,
    updated_at = EXCLUDED.updated_at`).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build credit wallet query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, creditQuery, creditArgs...); err != nil {
		return fmt.Errorf("credit wallet user=%s: %w", input.UserID, err)
	}

	entryQuery, entryArgs, err := qb.Update("contest_entries").
		Set("win_amount", input.Amount).
		Where(qb.Eq("id", input.EntryID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update entry win amount query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, entryQuery, entryArgs...); err != nil {
		return fmt.Errorf("update entry win amount entry=%s: %w", input.EntryID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit credit contest win tx: %w", err)
	}
	return nil
}

func (r *WalletRepository) Balance(ctx context.Context, userID string) (float64, error) {
	query, args, err := qb.Select("COALESCE(SUM(balance), 0)").From("wallets").
		Where(qb.Eq("user_id", userID)).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build select wallet balance query: %w", err)
	}

	var balance float64
	if err := r.db.GetContext(ctx, &balance, query, args...); err != nil {
		return 0, fmt.Errorf("select wallet balance: %w", err)
	}
	return balance, nil
}

func (r *WalletRepository) AppendFailure(ctx context.Context, record wallet.FailureRecord) error {
	insertModel := settlementFailureTableModel{
		ID:        record.ID,
		UserID:    record.UserID,
		ContestID: record.ContestID,
		EntryID:   record.EntryID,
		Rank:      record.Rank,
		Amount:    record.Amount,
		Reason:    record.Reason,
		CreatedAt: record.CreatedAt,
	}
	query, args, err := qb.InsertModel("settlement_failures", insertModel, "")
	if err != nil {
		return fmt.Errorf("build insert settlement failure query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert settlement failure contest=%s entry=%s: %w", record.ContestID, record.EntryID, err)
	}
	return nil
}

func (r *WalletRepository) ListFailuresByContest(ctx context.Context, contestID string) ([]wallet.FailureRecord, error) {
	query, args, err := qb.Select("*").From("settlement_failures").
		Where(qb.Eq("contest_id", contestID)).
		OrderBy("created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list settlement failures query: %w", err)
	}

	var rows []settlementFailureTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list settlement failures: %w", err)
	}

	out := make([]wallet.FailureRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
