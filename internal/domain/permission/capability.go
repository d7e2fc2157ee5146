// Package permission implementa la compuerta de autorización: una función pura de
// {rol, capacidades extra, plan de suscripción, capacidad pedida} → permitir/denegar.
package permission

import "fmt"

// Capability acción autorizable. Enum cerrado: agregar una capacidad obliga a ubicarla
// en los mapas de rol y de plan.
type Capability int

const (
	POSAccess Capability = iota + 1
	POSVoidItem
	POSVoidTicket
	CashOpen
	CashClose
	CashManage
	InventoryView
	InventoryManage
	InventoryAdjust
	InventoryCosts
	CategoriesManage
	PayrollView
	PayrollManage
	AuditManage
	ReportsView
	ReportsFinancial
	SettingsManageUsers
	SettingsGlobal

	capabilityEnd
)

var capabilityNames = map[Capability]string{
	POSAccess:           "POS_ACCESS",
	POSVoidItem:         "POS_VOID_ITEM",
	POSVoidTicket:       "POS_VOID_TICKET",
	CashOpen:            "CASH_OPEN",
	CashClose:           "CASH_CLOSE",
	CashManage:          "CASH_MANAGE",
	InventoryView:       "INVENTORY_VIEW",
	InventoryManage:     "INVENTORY_MANAGE",
	InventoryAdjust:     "INVENTORY_ADJUST",
	InventoryCosts:      "INVENTORY_VIEW_COSTS",
	CategoriesManage:    "CATEGORIES_MANAGE",
	PayrollView:         "PAYROLL_VIEW",
	PayrollManage:       "PAYROLL_MANAGE",
	AuditManage:         "AUDIT_MANAGE",
	ReportsView:         "REPORTS_VIEW",
	ReportsFinancial:    "REPORTS_FINANCIAL",
	SettingsManageUsers: "SETTINGS_USERS_MANAGE",
	SettingsGlobal:      "SETTINGS_GLOBAL",
}

func (c Capability) String() string {
	if n, ok := capabilityNames[c]; ok {
		return n
	}
	return fmt.Sprintf("Capability(%d)", int(c))
}

// Valid indica si c pertenece al enum.
func (c Capability) Valid() bool { return c > 0 && c < capabilityEnd }

// ParseCapability traduce el nombre estable (ej. "POS_ACCESS") al enum.
func ParseCapability(s string) (Capability, error) {
	for c, n := range capabilityNames {
		if n == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("capacidad %q desconocida", s)
}

// Set conjunto de capacidades.
type Set map[Capability]struct{}

// NewSet construye un conjunto.
func NewSet(caps ...Capability) Set {
	s := make(Set, len(caps))
	for _, c := range caps {
		s[c] = struct{}{}
	}
	return s
}

// Has prueba pertenencia.
func (s Set) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

// All devuelve todas las capacidades del enum.
func All() []Capability {
	out := make([]Capability, 0, int(capabilityEnd)-1)
	for c := POSAccess; c < capabilityEnd; c++ {
		out = append(out, c)
	}
	return out
}
