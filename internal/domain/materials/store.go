package materials

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("materials: not found")

// Store хранилище материалов. Get/FindByKey возвращают nil, nil, если записи нет.
type Store interface {
	AddMaterial(ctx context.Context, m Material) (Material, error)
	UpdateMaterial(ctx context.Context, m Material) (Material, error)
	DeleteMaterial(ctx context.Context, id int64) error
	GetMaterial(ctx context.Context, id int64) (*Material, error)
	FindMaterialByKey(ctx context.Context, key string) (*Material, error)
	ListMaterials(ctx context.Context) ([]Material, error)
}
