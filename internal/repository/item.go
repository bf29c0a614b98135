// Package repository contains data access layer abstractions.
// Implementations live in subpackages (e.g., sqlstore) inside this directory.
package repository

import (
	"context"

	"itemapi/internal/actor"
	"itemapi/internal/model"
	"itemapi/internal/model/filter"
)

// ItemRepository defines data access for items.
// No business logic here, strictly persistence operations.
type ItemRepository interface {
	// Create inserts a new item owned by the caller and returns its id.
	Create(ctx context.Context, c actor.Ctx, in model.ItemForCreate) (int64, error)

	// Get returns an item by its ID.
	Get(ctx context.Context, c actor.Ctx, id int64) (*model.Item, error)

	// List returns a page of items matching any of filters and the total number of matches.
	List(ctx context.Context, c actor.Ctx, filters []model.ItemFilter, opts *filter.ListOptions) (*PageResult[model.Item], error)

	// Update applies the present fields of in to the item.
	Update(ctx context.Context, c actor.Ctx, id int64, in model.ItemForUpdate) error

	// Delete removes an item by ID.
	Delete(ctx context.Context, c actor.Ctx, id int64) error
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int64
}
