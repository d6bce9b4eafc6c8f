package player

import "context"

type Repository interface {
	GetByID(ctx context.Context, id string) (Player, bool, error)
	GetByProviderID(ctx context.Context, providerID string) (Player, bool, error)
	ListByProviderIDs(ctx context.Context, providerIDs []string) ([]Player, error)
	Create(ctx context.Context, item Player) error
}
