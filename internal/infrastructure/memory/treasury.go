package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
)

type sessionRepo struct{ d *data }

func (r *sessionRepo) Create(_ context.Context, s *entity.CashSession) error {
	for _, x := range r.d.sessions {
		if x.Status == entity.SessionOpen {
			return domain.ErrSessionOpen
		}
	}
	if _, ok := r.d.sessions[s.ID]; ok {
		return domain.ErrDuplicate
	}
	r.d.sessions[s.ID] = cloneSession(*s)
	return nil
}

func (r *sessionRepo) GetByID(_ context.Context, id string) (*entity.CashSession, error) {
	s, ok := r.d.sessions[id]
	if !ok {
		return nil, nil
	}
	out := cloneSession(s)
	return &out, nil
}

func (r *sessionRepo) GetOpenForUpdate(ctx context.Context) (*entity.CashSession, error) {
	return r.GetOpen(ctx)
}

func (r *sessionRepo) GetOpen(_ context.Context) (*entity.CashSession, error) {
	for _, s := range r.d.sessions {
		if s.Status == entity.SessionOpen {
			out := cloneSession(s)
			return &out, nil
		}
	}
	return nil, nil
}

func (r *sessionRepo) Update(_ context.Context, s *entity.CashSession) error {
	if _, ok := r.d.sessions[s.ID]; !ok {
		return domain.ErrNotFound
	}
	r.d.sessions[s.ID] = cloneSession(*s)
	return nil
}

type entryRepo struct{ d *data }

func (r *entryRepo) Append(_ context.Context, e *entity.TreasuryEntry) error {
	e.ID = int64(len(r.d.entries) + 1)
	e.CreatedAt = nowIfZero(e.CreatedAt)
	r.d.entries = append(r.d.entries, *e)
	return nil
}

func (r *entryRepo) ListBySession(_ context.Context, sessionID string) ([]*entity.TreasuryEntry, error) {
	out := make([]*entity.TreasuryEntry, 0)
	for _, e := range r.d.entries {
		if e.SessionID == sessionID {
			c := e
			out = append(out, &c)
		}
	}
	return out, nil
}

type expenseRepo struct{ d *data }

func (r *expenseRepo) Create(_ context.Context, e *entity.Expense) error {
	if _, ok := r.d.expenses[e.ID]; ok {
		return domain.ErrDuplicate
	}
	r.d.expenses[e.ID] = cloneExpense(*e)
	return nil
}

func (r *expenseRepo) GetByID(_ context.Context, id string) (*entity.Expense, error) {
	e, ok := r.d.expenses[id]
	if !ok {
		return nil, nil
	}
	out := cloneExpense(e)
	return &out, nil
}

func (r *expenseRepo) GetForUpdate(ctx context.Context, id string) (*entity.Expense, error) {
	return r.GetByID(ctx, id)
}

func (r *expenseRepo) Update(_ context.Context, e *entity.Expense) error {
	if _, ok := r.d.expenses[e.ID]; !ok {
		return domain.ErrNotFound
	}
	r.d.expenses[e.ID] = cloneExpense(*e)
	return nil
}

func (r *expenseRepo) ListBySession(_ context.Context, sessionID string) ([]*entity.Expense, error) {
	out := make([]*entity.Expense, 0)
	for _, e := range r.d.expenses {
		if e.SessionID == sessionID {
			c := cloneExpense(e)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type cutRepo struct{ d *data }

func (r *cutRepo) Create(_ context.Context, c *entity.Cut) error {
	for _, x := range r.d.cuts {
		if x.ID == c.ID || x.SessionID == c.SessionID {
			return domain.ErrDuplicate
		}
	}
	r.d.cuts = append(r.d.cuts, *c)
	return nil
}

func (r *cutRepo) GetByID(_ context.Context, id string) (*entity.Cut, error) {
	for _, x := range r.d.cuts {
		if x.ID == id {
			c := x
			return &c, nil
		}
	}
	return nil, nil
}

// List del más reciente al más antiguo.
func (r *cutRepo) List(_ context.Context, limit, offset int) ([]*entity.Cut, error) {
	rev := make([]entity.Cut, 0, len(r.d.cuts))
	for i := len(r.d.cuts) - 1; i >= 0; i-- {
		rev = append(rev, r.d.cuts[i])
	}
	sel := page(rev, limit, offset)
	out := make([]*entity.Cut, 0, len(sel))
	for i := range sel {
		c := sel[i]
		out = append(out, &c)
	}
	return out, nil
}

type saleRepo struct{ d *data }

func (r *saleRepo) Create(_ context.Context, s *entity.Sale) error {
	if _, ok := r.d.sales[s.ID]; ok {
		return domain.ErrDuplicate
	}
	r.d.sales[s.ID] = cloneSale(*s)
	return nil
}

func (r *saleRepo) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	s, ok := r.d.sales[id]
	if !ok {
		return nil, nil
	}
	out := cloneSale(s)
	return &out, nil
}

func (r *saleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return r.GetByID(ctx, id)
}

func (r *saleRepo) Update(_ context.Context, s *entity.Sale) error {
	if _, ok := r.d.sales[s.ID]; !ok {
		return domain.ErrNotFound
	}
	r.d.sales[s.ID] = cloneSale(*s)
	return nil
}

func (r *saleRepo) ListBySession(_ context.Context, sessionID string) ([]*entity.Sale, error) {
	out := make([]*entity.Sale, 0)
	for _, s := range r.d.sales {
		if s.SessionID == sessionID {
			c := cloneSale(s)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
