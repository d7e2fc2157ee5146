package memory

import (
	"time"

	"github.com/jhoicas/pos-ledger/internal/domain/entity"
)

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneProduct(p entity.Product) entity.Product {
	p.ExpiresAt = cloneTime(p.ExpiresAt)
	return p
}

func cloneSession(s entity.CashSession) entity.CashSession {
	s.ClosedAt = cloneTime(s.ClosedAt)
	return s
}

func cloneExpense(e entity.Expense) entity.Expense {
	e.RevertedAt = cloneTime(e.RevertedAt)
	return e
}

func cloneSale(s entity.Sale) entity.Sale {
	s.Items = copySlice(s.Items)
	s.Payments = copySlice(s.Payments)
	s.Change = copySlice(s.Change)
	s.VoidedAt = cloneTime(s.VoidedAt)
	return s
}

func cloneAccount(a entity.EmployeeAccount) entity.EmployeeAccount {
	a.LastPaymentAt = cloneTime(a.LastPaymentAt)
	a.LastCloseAt = cloneTime(a.LastCloseAt)
	return a
}

func cloneDebt(e entity.DebtEntry) entity.DebtEntry {
	e.VoidedAt = cloneTime(e.VoidedAt)
	return e
}

func clonePeriod(p entity.Period) entity.Period {
	snaps := make([]entity.PeriodSnapshot, len(p.Snapshots))
	for i, s := range p.Snapshots {
		s.EntryIDs = copySlice(s.EntryIDs)
		snaps[i] = s
	}
	p.Snapshots = snaps
	return p
}

func cloneTemplate(t entity.AuditTemplate) entity.AuditTemplate {
	t.ProductIDs = copySlice(t.ProductIDs)
	return t
}

func cloneAudit(s entity.AuditSession) entity.AuditSession {
	items := make([]entity.AuditItem, len(s.Items))
	for i, it := range s.Items {
		if it.Count != nil {
			c := *it.Count
			it.Count = &c
		}
		if it.Breakdown != nil {
			b := *it.Breakdown
			it.Breakdown = &b
		}
		it.ResolvedAt = cloneTime(it.ResolvedAt)
		items[i] = it
	}
	s.Items = items
	s.ClosedAt = cloneTime(s.ClosedAt)
	return s
}

func cloneUser(u entity.User) entity.User {
	u.ExtraCapabilities = copySlice(u.ExtraCapabilities)
	return u
}

func cloneEvent(e entity.SecurityEvent) entity.SecurityEvent {
	if e.Detail != nil {
		e.Detail = copyMap(e.Detail)
	}
	return e
}

func nowIfZero(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

