package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
)

type accountRepo struct{ d *data }

func (r *accountRepo) Upsert(_ context.Context, a *entity.EmployeeAccount) error {
	r.d.accounts[a.EmployeeID] = cloneAccount(*a)
	return nil
}

func (r *accountRepo) GetByID(_ context.Context, employeeID string) (*entity.EmployeeAccount, error) {
	a, ok := r.d.accounts[employeeID]
	if !ok {
		return nil, nil
	}
	out := cloneAccount(a)
	return &out, nil
}

func (r *accountRepo) GetForUpdate(ctx context.Context, employeeID string) (*entity.EmployeeAccount, error) {
	return r.GetByID(ctx, employeeID)
}

func (r *accountRepo) ListForUpdate(ctx context.Context) ([]*entity.EmployeeAccount, error) {
	return r.List(ctx)
}

func (r *accountRepo) List(_ context.Context) ([]*entity.EmployeeAccount, error) {
	out := make([]*entity.EmployeeAccount, 0, len(r.d.accounts))
	for _, a := range r.d.accounts {
		c := cloneAccount(a)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

type debtRepo struct{ d *data }

func (r *debtRepo) Append(_ context.Context, e *entity.DebtEntry) error {
	e.ID = int64(len(r.d.debts) + 1)
	e.CreatedAt = nowIfZero(e.CreatedAt)
	r.d.debts = append(r.d.debts, cloneDebt(*e))
	return nil
}

func (r *debtRepo) GetByID(_ context.Context, id int64) (*entity.DebtEntry, error) {
	if id < 1 || id > int64(len(r.d.debts)) {
		return nil, nil
	}
	out := cloneDebt(r.d.debts[id-1])
	return &out, nil
}

func (r *debtRepo) GetForUpdate(ctx context.Context, id int64) (*entity.DebtEntry, error) {
	return r.GetByID(ctx, id)
}

func (r *debtRepo) Update(_ context.Context, e *entity.DebtEntry) error {
	if e.ID < 1 || e.ID > int64(len(r.d.debts)) {
		return domain.ErrNotFound
	}
	r.d.debts[e.ID-1] = cloneDebt(*e)
	return nil
}

func (r *debtRepo) ListByEmployee(_ context.Context, employeeID string) ([]*entity.DebtEntry, error) {
	return r.filter(func(e entity.DebtEntry) bool { return e.EmployeeID == employeeID }), nil
}

func (r *debtRepo) ListPending(_ context.Context, employeeID string) ([]*entity.DebtEntry, error) {
	return r.filter(func(e entity.DebtEntry) bool {
		return e.EmployeeID == employeeID && e.Status == entity.DebtPending
	}), nil
}

func (r *debtRepo) filter(keep func(entity.DebtEntry) bool) []*entity.DebtEntry {
	out := make([]*entity.DebtEntry, 0)
	for _, e := range r.d.debts {
		if keep(e) {
			c := cloneDebt(e)
			out = append(out, &c)
		}
	}
	return out
}

type periodRepo struct{ d *data }

func (r *periodRepo) Create(_ context.Context, p *entity.Period) error {
	r.d.periods = append(r.d.periods, clonePeriod(*p))
	return nil
}

// List del más reciente al más antiguo.
func (r *periodRepo) List(_ context.Context, limit, offset int) ([]*entity.Period, error) {
	rev := make([]entity.Period, 0, len(r.d.periods))
	for i := len(r.d.periods) - 1; i >= 0; i-- {
		rev = append(rev, r.d.periods[i])
	}
	sel := page(rev, limit, offset)
	out := make([]*entity.Period, 0, len(sel))
	for _, p := range sel {
		c := clonePeriod(p)
		out = append(out, &c)
	}
	return out, nil
}
