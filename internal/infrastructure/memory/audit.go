package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
)

type templateRepo struct{ d *data }

func (r *templateRepo) Create(_ context.Context, t *entity.AuditTemplate) error {
	if _, ok := r.d.templates[t.ID]; ok {
		return domain.ErrDuplicate
	}
	r.d.templates[t.ID] = cloneTemplate(*t)
	return nil
}

func (r *templateRepo) GetByID(_ context.Context, id string) (*entity.AuditTemplate, error) {
	t, ok := r.d.templates[id]
	if !ok {
		return nil, nil
	}
	out := cloneTemplate(t)
	return &out, nil
}

func (r *templateRepo) List(_ context.Context) ([]*entity.AuditTemplate, error) {
	out := make([]*entity.AuditTemplate, 0, len(r.d.templates))
	for _, t := range r.d.templates {
		c := cloneTemplate(t)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *templateRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.d.templates[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.d.templates, id)
	return nil
}

type auditSessionRepo struct{ d *data }

func (r *auditSessionRepo) Create(_ context.Context, s *entity.AuditSession) error {
	if _, ok := r.d.audits[s.ID]; ok {
		return domain.ErrDuplicate
	}
	r.d.audits[s.ID] = cloneAudit(*s)
	return nil
}

func (r *auditSessionRepo) GetByID(_ context.Context, id string) (*entity.AuditSession, error) {
	s, ok := r.d.audits[id]
	if !ok {
		return nil, nil
	}
	out := cloneAudit(s)
	return &out, nil
}

func (r *auditSessionRepo) GetForUpdate(ctx context.Context, id string) (*entity.AuditSession, error) {
	return r.GetByID(ctx, id)
}

func (r *auditSessionRepo) Update(_ context.Context, s *entity.AuditSession) error {
	if _, ok := r.d.audits[s.ID]; !ok {
		return domain.ErrNotFound
	}
	r.d.audits[s.ID] = cloneAudit(*s)
	return nil
}

// List de la más reciente a la más antigua.
func (r *auditSessionRepo) List(_ context.Context, limit, offset int) ([]*entity.AuditSession, error) {
	all := make([]entity.AuditSession, 0, len(r.d.audits))
	for _, s := range r.d.audits {
		all = append(all, s)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].StartedAt.After(all[j].StartedAt) })
	sel := page(all, limit, offset)
	out := make([]*entity.AuditSession, 0, len(sel))
	for _, s := range sel {
		c := cloneAudit(s)
		out = append(out, &c)
	}
	return out, nil
}
