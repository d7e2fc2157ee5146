package permission

import "fmt"

// Feature función comercial habilitada por plan.
type Feature string

const (
	FeaturePOS        Feature = "pos"
	FeatureInventory  Feature = "inventario"
	FeatureZReport    Feature = "cierre"
	FeatureConfig     Feature = "config"
	FeatureDailyTotal Feature = "totalDiario"
	FeatureDashboard  Feature = "dashboard"
	FeatureExpenses   Feature = "gastos"
	FeatureHistory    Feature = "historial"
	FeatureCategories Feature = "categorias"
	FeatureKardex     Feature = "kardex"
	FeatureMultiCash  Feature = "multiCaja"
	FeatureReports    Feature = "reportes"
	FeatureRoles      Feature = "roles"
	FeaturePayroll    Feature = "nomina"
)

// Tier plan de suscripción; techo evaluado antes que el rol.
type Tier struct {
	Name     string
	features map[Feature]struct{}
}

// Has indica si el plan incluye f.
func (t Tier) Has(f Feature) bool {
	_, ok := t.features[f]
	return ok
}

func newTier(name string, base []Feature, extra ...Feature) Tier {
	t := Tier{Name: name, features: make(map[Feature]struct{})}
	for _, f := range base {
		t.features[f] = struct{}{}
	}
	for _, f := range extra {
		t.features[f] = struct{}{}
	}
	return t
}

var (
	bodegaFeatures = []Feature{FeaturePOS, FeatureInventory, FeatureZReport, FeatureConfig, FeatureDailyTotal, FeatureDashboard}
	abastoFeatures = append(append([]Feature{}, bodegaFeatures...),
		FeatureExpenses, FeatureHistory, FeatureCategories, FeatureKardex, FeatureMultiCash, FeaturePayroll)
)

// Planes disponibles (acumulativos).
var (
	TierBodega     = newTier("bodega", bodegaFeatures)
	TierAbasto     = newTier("abasto", abastoFeatures)
	TierMinimarket = newTier("minimarket", abastoFeatures, FeatureReports, FeatureRoles)
)

// ParseTier resuelve el plan por nombre.
func ParseTier(name string) (Tier, error) {
	switch name {
	case "bodega":
		return TierBodega, nil
	case "abasto":
		return TierAbasto, nil
	case "minimarket", "":
		return TierMinimarket, nil
	}
	return Tier{}, fmt.Errorf("plan %q desconocido", name)
}

// capabilityFeature capacidades condicionadas a una función del plan. Las no listadas
// pertenecen al núcleo que todo plan incluye.
var capabilityFeature = map[Capability]Feature{
	CashManage:          FeatureExpenses,
	CategoriesManage:    FeatureCategories,
	PayrollView:         FeaturePayroll,
	PayrollManage:       FeaturePayroll,
	AuditManage:         FeatureKardex,
	ReportsFinancial:    FeatureReports,
	SettingsManageUsers: FeatureRoles,
}
