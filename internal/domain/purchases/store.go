package purchases

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("purchases: not found")

// Store журнал закупок. GetPurchase возвращает nil, nil, если записи нет.
type Store interface {
	AddPurchase(ctx context.Context, p Purchase) (Purchase, error)
	UpdatePurchase(ctx context.Context, p Purchase) (Purchase, error)
	DeletePurchase(ctx context.Context, id int64) error
	GetPurchase(ctx context.Context, id int64) (*Purchase, error)
	ListPurchases(ctx context.Context) ([]Purchase, error)
}
