package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
)

type productRepo struct{ d *data }

func (r *productRepo) Create(_ context.Context, p *entity.Product) error {
	if _, ok := r.d.products[p.ID]; ok {
		return domain.ErrDuplicate
	}
	r.d.products[p.ID] = cloneProduct(*p)
	return nil
}

func (r *productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	p, ok := r.d.products[id]
	if !ok {
		return nil, nil
	}
	out := cloneProduct(p)
	return &out, nil
}

func (r *productRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *productRepo) Update(_ context.Context, p *entity.Product) error {
	if _, ok := r.d.products[p.ID]; !ok {
		return domain.ErrNotFound
	}
	r.d.products[p.ID] = cloneProduct(*p)
	return nil
}

func (r *productRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.d.products[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.d.products, id)
	return nil
}

func (r *productRepo) List(_ context.Context, limit, offset int) ([]*entity.Product, error) {
	all := make([]entity.Product, 0, len(r.d.products))
	for _, p := range r.d.products {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Name != all[j].Name {
			return all[i].Name < all[j].Name
		}
		return all[i].ID < all[j].ID
	})
	sel := page(all, limit, offset)
	out := make([]*entity.Product, 0, len(sel))
	for _, p := range sel {
		c := cloneProduct(p)
		out = append(out, &c)
	}
	return out, nil
}

func (r *productRepo) ReassignCategory(_ context.Context, from, to string) (int64, error) {
	var n int64
	now := time.Now().UTC()
	for id, p := range r.d.products {
		if strings.EqualFold(p.Category, from) {
			p.Category = to
			p.UpdatedAt = now
			r.d.products[id] = p
			n++
		}
	}
	return n, nil
}

type movementRepo struct{ d *data }

// Append asigna el siguiente ID (posición + 1).
func (r *movementRepo) Append(_ context.Context, m *entity.Movement) error {
	m.ID = int64(len(r.d.movements) + 1)
	m.CreatedAt = nowIfZero(m.CreatedAt)
	r.d.movements = append(r.d.movements, *m)
	return nil
}

func (r *movementRepo) GetByID(_ context.Context, id int64) (*entity.Movement, error) {
	if id < 1 || id > int64(len(r.d.movements)) {
		return nil, nil
	}
	m := r.d.movements[id-1]
	return &m, nil
}

func (r *movementRepo) ListByProduct(_ context.Context, productID string) ([]*entity.Movement, error) {
	out := make([]*entity.Movement, 0)
	for _, m := range r.d.movements {
		if m.ProductID == productID {
			c := m
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *movementRepo) ListByKindSince(_ context.Context, kind entity.MovementKind, since time.Time) ([]*entity.Movement, error) {
	out := make([]*entity.Movement, 0)
	for _, m := range r.d.movements {
		if m.Kind == kind && !m.CreatedAt.Before(since) {
			c := m
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *movementRepo) RenameProduct(_ context.Context, productID, oldName, newName string) (int64, error) {
	var n int64
	for i, m := range r.d.movements {
		if m.ProductID == productID || (m.ProductID == "" && m.ProductName == oldName) {
			m.ProductName = newName
			r.d.movements[i] = m
			n++
		}
	}
	return n, nil
}

type categoryRepo struct{ d *data }

func (r *categoryRepo) Create(_ context.Context, c *entity.Category) error {
	for _, x := range r.d.categories {
		if strings.EqualFold(x.Name, c.Name) {
			return domain.ErrDuplicate
		}
	}
	c.CreatedAt = nowIfZero(c.CreatedAt)
	r.d.categories[c.ID] = *c
	return nil
}

func (r *categoryRepo) GetByName(_ context.Context, name string) (*entity.Category, error) {
	for _, x := range r.d.categories {
		if strings.EqualFold(x.Name, name) {
			c := x
			return &c, nil
		}
	}
	return nil, nil
}

func (r *categoryRepo) List(_ context.Context) ([]*entity.Category, error) {
	out := make([]*entity.Category, 0, len(r.d.categories))
	for _, x := range r.d.categories {
		c := x
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *categoryRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.d.categories[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.d.categories, id)
	return nil
}
