package service

import (
	"context"
	"errors"
	"strings"

	"itemapi/internal/actor"
	"itemapi/internal/model"
	"itemapi/internal/model/filter"
	"itemapi/internal/repository"
)

var (
	ErrUnauthenticated = errors.New("caller identity is required")
)

// ItemListResult is the service-level DTO for paginated items.
type ItemListResult struct {
	Items []model.Item `json:"data"`
	Total int64        `json:"total"`
}

// ItemService defines the use cases for handling items. Every call acts on behalf of
// the actor stored in ctx.
type ItemService interface {
	// Create stores a new item owned by the caller and returns it as persisted.
	Create(ctx context.Context, in model.ItemForCreate) (*model.Item, error)

	// List returns items matching any of filters, paged by opts, with the total match count.
	List(ctx context.Context, filters []model.ItemFilter, opts *filter.ListOptions) (*ItemListResult, error)

	// Get returns a single item by its ID.
	Get(ctx context.Context, id int64) (*model.Item, error)

	// Update applies the present fields of in and returns the updated item.
	Update(ctx context.Context, id int64, in model.ItemForUpdate) (*model.Item, error)

	// Delete removes an item by ID.
	Delete(ctx context.Context, id int64) error
}

// itemService is a concrete implementation of ItemService.
type itemService struct {
	repo repository.ItemRepository
}

// NewItemService constructs a new ItemService.
func NewItemService(repo repository.ItemRepository) ItemService {
	return &itemService{repo: repo}
}

func caller(ctx context.Context) (actor.Ctx, error) {
	c, ok := actor.FromContext(ctx)
	if !ok {
		return actor.Ctx{}, ErrUnauthenticated
	}
	return c, nil
}

func (s *itemService) Create(ctx context.Context, in model.ItemForCreate) (*model.Item, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, &model.ValidationError{Entity: model.ItemEntity.Name, Message: "name is required"}
	}

	id, err := s.repo.Create(ctx, c, in)
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, c, id)
}

// List returns paginated items without exposing repository types.
func (s *itemService) List(ctx context.Context, filters []model.ItemFilter, opts *filter.ListOptions) (*ItemListResult, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.repo.List(ctx, c, filters, opts)
	if err != nil {
		return nil, err
	}
	return &ItemListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *itemService) Get(ctx context.Context, id int64) (*model.Item, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, c, id)
}

func (s *itemService) Update(ctx context.Context, id int64, in model.ItemForUpdate) (*model.Item, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, &model.ValidationError{Entity: model.ItemEntity.Name, Message: "name must not be empty"}
		}
		in.Name = &name
	}

	if err := s.repo.Update(ctx, c, id, in); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, c, id)
}

func (s *itemService) Delete(ctx context.Context, id int64) error {
	c, err := caller(ctx)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, c, id)
}
