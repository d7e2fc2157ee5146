package permission

import (
	"fmt"

	"github.com/jhoicas/pos-ledger/internal/domain"
)

// Role rol base del usuario.
type Role string

const (
	RoleOwner   Role = "ROL_DUENO"
	RoleManager Role = "ROL_ENCARGADO"
	RoleCashier Role = "ROL_EMPLEADO"
	RoleCustom  Role = "ROL_CUSTOM"
)

// ParseRole acepta el nombre estable o los alias cortos (admin, encargado, empleado, custom).
func ParseRole(s string) (Role, error) {
	switch s {
	case string(RoleOwner), "admin", "owner", "dueno":
		return RoleOwner, nil
	case string(RoleManager), "encargado", "manager":
		return RoleManager, nil
	case string(RoleCashier), "empleado", "cajero", "cashier":
		return RoleCashier, nil
	case string(RoleCustom), "custom":
		return RoleCustom, nil
	}
	return "", fmt.Errorf("rol %q desconocido", s)
}

var roleCapabilities = map[Role]Set{
	RoleOwner: NewSet(All()...),
	RoleManager: NewSet(
		POSAccess, POSVoidItem, POSVoidTicket,
		CashOpen, CashClose, CashManage,
		InventoryView, InventoryManage, InventoryAdjust, CategoriesManage,
		PayrollView, AuditManage,
		ReportsView,
	),
	RoleCashier: NewSet(
		POSAccess,
		CashOpen, CashManage,
		InventoryView,
	),
	RoleCustom: NewSet(),
}

// RoleCapabilities devuelve una copia de la base del rol.
func RoleCapabilities(r Role) []Capability {
	out := make([]Capability, 0, len(roleCapabilities[r]))
	for _, c := range All() {
		if roleCapabilities[r].Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Actor identidad que ejecuta una operación.
type Actor struct {
	ID     string
	Name   string
	Role   Role
	Master bool
	Extra  []Capability
}

// Gate compuerta de autorización. Sin estado mutable: se construye una vez por plan.
type Gate struct {
	tier       Tier
	tierBypass bool
}

// NewGate construye la compuerta para el plan activo.
func NewGate(tier Tier) *Gate {
	return &Gate{tier: tier}
}

// WithTierBypass habilita el bypass de plan (solo para depuración local).
func (g *Gate) WithTierBypass(enabled bool) *Gate {
	cp := *g
	cp.tierBypass = enabled
	return &cp
}

// Tier plan activo.
func (g *Gate) Tier() Tier { return g.tier }

// FeatureEnabled indica si el plan activo incluye la función (o si el bypass está activo).
func (g *Gate) FeatureEnabled(f Feature) bool {
	return g.tierBypass || g.tier.Has(f)
}

// Authorize decide si actor puede ejecutar c. Orden: sin actor → no; el plan no incluye
// la función → no; maestro o dueño → sí; si no, base del rol ∪ capacidades extra.
func (g *Gate) Authorize(actor *Actor, c Capability) bool {
	if actor == nil || !c.Valid() {
		return false
	}
	if !g.tierBypass {
		if f, gated := capabilityFeature[c]; gated && !g.tier.Has(f) {
			return false
		}
	}
	if actor.Master || actor.Role == RoleOwner {
		return true
	}
	if roleCapabilities[actor.Role].Has(c) {
		return true
	}
	for _, x := range actor.Extra {
		if x == c {
			return true
		}
	}
	return false
}

// AuthorizeAny permite si alguna de las capacidades está concedida.
func (g *Gate) AuthorizeAny(actor *Actor, caps ...Capability) bool {
	for _, c := range caps {
		if g.Authorize(actor, c) {
			return true
		}
	}
	return false
}

// Check como AuthorizeAny pero devuelve *domain.AuthorizationError con la primera capacidad pedida.
func (g *Gate) Check(actor *Actor, caps ...Capability) error {
	if g.AuthorizeAny(actor, caps...) {
		return nil
	}
	e := &domain.AuthorizationError{}
	if actor != nil {
		e.ActorID = actor.ID
	}
	if len(caps) > 0 {
		e.Capability = caps[0].String()
	}
	return e
}
