package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"itemapi/internal/actor"
	"itemapi/internal/model"
	"itemapi/internal/model/filter"
	"itemapi/internal/repository"
)

type MockItemRepository struct {
	mock.Mock
}

func (m *MockItemRepository) Create(ctx context.Context, c actor.Ctx, in model.ItemForCreate) (int64, error) {
	args := m.Called(ctx, c, in)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockItemRepository) Get(ctx context.Context, c actor.Ctx, id int64) (*model.Item, error) {
	args := m.Called(ctx, c, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Item), args.Error(1)
}

func (m *MockItemRepository) List(ctx context.Context, c actor.Ctx, filters []model.ItemFilter, opts *filter.ListOptions) (*repository.PageResult[model.Item], error) {
	args := m.Called(ctx, c, filters, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Item]), args.Error(1)
}

func (m *MockItemRepository) Update(ctx context.Context, c actor.Ctx, id int64, in model.ItemForUpdate) error {
	args := m.Called(ctx, c, id, in)
	return args.Error(0)
}

func (m *MockItemRepository) Delete(ctx context.Context, c actor.Ctx, id int64) error {
	args := m.Called(ctx, c, id)
	return args.Error(0)
}
