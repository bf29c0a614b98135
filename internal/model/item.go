package model

import (
	"context"
	"time"

	"itemapi/internal/actor"
	"itemapi/internal/model/field"
	"itemapi/internal/model/filter"
)

// Item is a row of the item table.
type Item struct {
	ID int64 `json:"id"`

	OwnerID  int64  `json:"owner_id"`
	Name     string `json:"name"`
	Origin   string `json:"origin"`
	Grapes   string `json:"grapes"`
	GoodWith string `json:"good_with"`
	Acid     int8   `json:"acid"`
	Alcohol  int8   `json:"alcohol"`
	Body     int8   `json:"body"`
	Tannin   int8   `json:"tannin"`

	// creator and last modifier
	CID   int64     `json:"cid"`
	CTime time.Time `json:"ctime"`
	MID   int64     `json:"mid"`
	MTime time.Time `json:"mtime"`
}

var itemColumns = []string{
	"id", "owner_id", "name", "origin", "grapes", "good_with",
	"acid", "alcohol", "body", "tannin",
	ColCID, ColCTime, ColMID, ColMTime,
}

func (i *Item) Columns() []string {
	return itemColumns
}

func (i *Item) Ptr(column string) any {
	switch column {
	case "id":
		return &i.ID
	case "owner_id":
		return &i.OwnerID
	case "name":
		return &i.Name
	case "origin":
		return &i.Origin
	case "grapes":
		return &i.Grapes
	case "good_with":
		return &i.GoodWith
	case "acid":
		return &i.Acid
	case "alcohol":
		return &i.Alcohol
	case "body":
		return &i.Body
	case "tannin":
		return &i.Tannin
	case ColCID:
		return &i.CID
	case ColCTime:
		return field.Time(&i.CTime)
	case ColMID:
		return &i.MID
	case ColMTime:
		return field.Time(&i.MTime)
	}
	return nil
}

// ItemForCreate holds what a caller supplies to create an item.
type ItemForCreate struct {
	Name string `json:"name"`
}

// itemForCreate is what actually gets inserted: the owner is always the caller.
type itemForCreate struct {
	Name    string
	OwnerID int64
}

func (d itemForCreate) Fields() field.Fields {
	var fs field.Fields
	fs.Push("name", d.Name)
	fs.Push("owner_id", d.OwnerID)
	return fs
}

// ItemForUpdate holds the changes to an item. Nil fields are left untouched.
type ItemForUpdate struct {
	Name    *string `json:"name,omitempty"`
	OwnerID *int64  `json:"owner_id,omitempty"`
}

func (d ItemForUpdate) Fields() field.Fields {
	var fs field.Fields
	field.Optional(&fs, "name", d.Name)
	field.Optional(&fs, "owner_id", d.OwnerID)
	return fs
}

// ItemFilter constrains item lists. Unset fields impose no constraint.
type ItemFilter struct {
	ID    filter.OpValsInt64  `json:"id,omitempty"`
	Name  filter.OpValsString `json:"name,omitempty"`
	CID   filter.OpValsInt64  `json:"cid,omitempty"`
	CTime filter.OpValsValue  `json:"ctime,omitempty"`
	MID   filter.OpValsInt64  `json:"mid,omitempty"`
	MTime filter.OpValsValue  `json:"mtime,omitempty"`
}

func (f ItemFilter) FilterNodes() []filter.Node {
	return []filter.Node{
		filter.Col("id", f.ID),
		filter.Col("name", f.Name),
		filter.Col(ColCID, f.CID),
		filter.Col(ColCTime, f.CTime),
		filter.Col(ColMID, f.MID),
		filter.Col(ColMTime, f.MTime),
	}
}

// ItemEntity binds Item to the item table.
var ItemEntity = Entity{
	Name:  "item",
	Table: "item",
	PK:    "id",
}

// ItemBmc is the model controller for items.
type ItemBmc struct{}

func (ItemBmc) Create(ctx context.Context, c actor.Ctx, mm *Manager, data ItemForCreate) (int64, error) {
	return Create(ctx, c, mm, ItemEntity, itemForCreate{
		Name:    data.Name,
		OwnerID: c.UserID(),
	})
}

func (ItemBmc) Get(ctx context.Context, c actor.Ctx, mm *Manager, id int64) (*Item, error) {
	return Get[Item](ctx, c, mm, ItemEntity, id)
}

func (ItemBmc) List(ctx context.Context, c actor.Ctx, mm *Manager, filters []ItemFilter, opts *filter.ListOptions) ([]Item, error) {
	return List[Item](ctx, c, mm, ItemEntity, filters, opts)
}

func (ItemBmc) Count(ctx context.Context, c actor.Ctx, mm *Manager, filters []ItemFilter) (int64, error) {
	return Count(ctx, c, mm, ItemEntity, filters)
}

func (ItemBmc) Update(ctx context.Context, c actor.Ctx, mm *Manager, id int64, data ItemForUpdate) error {
	return Update(ctx, c, mm, ItemEntity, id, data)
}

func (ItemBmc) Delete(ctx context.Context, c actor.Ctx, mm *Manager, id int64) error {
	return Delete(ctx, c, mm, ItemEntity, id)
}
