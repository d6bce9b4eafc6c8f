package postgres

import (
	"time"

	"github.com/sunnygoyal1983/play11-w-sub000/internal/domain/wallet"
)

type transactionTableModel struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Amount    float64   `db:"amount"`
	Type      string    `db:"tx_type"`
	Status    string    `db:"status"`
	Reference string    `db:"reference"`
	CreatedAt time.Time `db:"created_at"`
}

func (m transactionTableModel) toDomain() wallet.Transaction {
	return wallet.Transaction{
		ID:        m.ID,
		UserID:    m.UserID,
		Amount:    m.Amount,
		Type:      m.Type,
		Status:    m.Status,
		Reference: m.Reference,
		CreatedAt: m.CreatedAt,
	}
}

type settlementFailureTableModel struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	ContestID string    `db:"contest_id"`
	EntryID   string    `db:"entry_id"`
	Rank      int       `db:"rank"`
	Amount    float64   `db:"amount"`
	Reason    string    `db:"reason"`
	CreatedAt time.Time `db:"created_at"`
}

func (m settlementFailureTableModel) toDomain() wallet.FailureRecord {
	return wallet.FailureRecord{
		ID:        m.ID,
		UserID:    m.UserID,
		ContestID: m.ContestID,
		EntryID:   m.EntryID,
		Rank:      m.Rank,
		Amount:    m.Amount,
		Reason:    m.Reason,
		CreatedAt: m.CreatedAt,
	}
}
