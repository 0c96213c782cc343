package inventory

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/inventory-sms-agent/agent/contract"
)

// ErrProductNotFound matches contract.ErrNotFound via errors.Is.
var ErrProductNotFound = fmt.Errorf("product %w", contractx.ErrNotFound)

// Store is the read-only view of the dataset used by the tools.
type Store interface {
	AllProducts(ctx context.Context) ([]Product, error)
	ProductByID(ctx context.Context, id string) (Product, error)
	ProductByName(ctx context.Context, name string) (Product, error)
	FindProduct(ctx context.Context, idOrName string) (Product, error)
	Warehouse(ctx context.Context) (WarehouseState, error)
	Constraints(ctx context.Context) (BusinessConstraints, error)
}

// MemoryStore serves an immutable Dataset snapshot. It is safe for
// concurrent readers because nothing ever writes to it after construction.
type MemoryStore struct {
	data *Dataset
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(data *Dataset) (*MemoryStore, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}
	return &MemoryStore{data: data.Clone()}, nil
}

func (s *MemoryStore) AllProducts(ctx context.Context) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]Product, len(s.data.Products))
	for i, p := range s.data.Products {
		out[i] = p.Clone()
	}
	return out, nil
}

func (s *MemoryStore) ProductByID(ctx context.Context, id string) (Product, error) {
	if err := ctx.Err(); err != nil {
		return Product{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Product{}, fmt.Errorf("%w: empty id", ErrProductNotFound)
	}
	for _, p := range s.data.Products {
		if strings.EqualFold(p.ID, id) {
			return p.Clone(), nil
		}
	}
	return Product{}, fmt.Errorf("%w: id=%s", ErrProductNotFound, id)
}

// ProductByName does a case-insensitive substring match. When several
// products match, the first one in dataset order wins.
func (s *MemoryStore) ProductByName(ctx context.Context, name string) (Product, error) {
	if err := ctx.Err(); err != nil {
		return Product{}, err
	}
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return Product{}, fmt.Errorf("%w: empty name", ErrProductNotFound)
	}
	for _, p := range s.data.Products {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			return p.Clone(), nil
		}
	}
	return Product{}, fmt.Errorf("%w: name=%s", ErrProductNotFound, name)
}

func (s *MemoryStore) FindProduct(ctx context.Context, idOrName string) (Product, error) {
	p, err := s.ProductByID(ctx, idOrName)
	if err == nil {
		return p, nil
	}
	return s.ProductByName(ctx, idOrName)
}

func (s *MemoryStore) Warehouse(ctx context.Context) (WarehouseState, error) {
	if err := ctx.Err(); err != nil {
		return WarehouseState{}, err
	}
	return s.data.Warehouse, nil
}

func (s *MemoryStore) Constraints(ctx context.Context) (BusinessConstraints, error) {
	if err := ctx.Err(); err != nil {
		return BusinessConstraints{}, err
	}
	return s.data.Constraints, nil
}
