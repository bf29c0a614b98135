package sqlstore

import (
	"context"

	"itemapi/internal/actor"
	"itemapi/internal/model"
	"itemapi/internal/model/filter"
	"itemapi/internal/repository"
)

// ItemStore is the SQL implementation of repository.ItemRepository.
// It runs every call through the item model controller and contains no business logic.
type ItemStore struct {
	mm  *model.Manager
	bmc model.ItemBmc
}

// NewItemStore creates a new ItemStore.
func NewItemStore(mm *model.Manager) *ItemStore {
	return &ItemStore{mm: mm}
}

var _ repository.ItemRepository = (*ItemStore)(nil)

func (s *ItemStore) Create(ctx context.Context, c actor.Ctx, in model.ItemForCreate) (int64, error) {
	return s.bmc.Create(ctx, c, s.mm, in)
}

func (s *ItemStore) Get(ctx context.Context, c actor.Ctx, id int64) (*model.Item, error) {
	return s.bmc.Get(ctx, c, s.mm, id)
}

// List returns the requested page and the total count for the same filters.
func (s *ItemStore) List(ctx context.Context, c actor.Ctx, filters []model.ItemFilter, opts *filter.ListOptions) (*repository.PageResult[model.Item], error) {
	items, err := s.bmc.List(ctx, c, s.mm, filters, opts)
	if err != nil {
		return nil, err
	}
	total, err := s.bmc.Count(ctx, c, s.mm, filters)
	if err != nil {
		return nil, err
	}
	return &repository.PageResult[model.Item]{
		Items: items,
		Total: total,
	}, nil
}

func (s *ItemStore) Update(ctx context.Context, c actor.Ctx, id int64, in model.ItemForUpdate) error {
	return s.bmc.Update(ctx, c, s.mm, id, in)
}

func (s *ItemStore) Delete(ctx context.Context, c actor.Ctx, id int64) error {
	return s.bmc.Delete(ctx, c, s.mm, id)
}
