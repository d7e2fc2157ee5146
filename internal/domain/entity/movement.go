package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind tipo de asiento del kardex. Variante cerrada: todo switch sobre ella
// debe cubrir los siete casos.
type MovementKind string

const (
	MovementInitial             MovementKind = "initial"
	MovementEdit                MovementKind = "edit"
	MovementSale                MovementKind = "sale"
	MovementReversal            MovementKind = "reversal"
	MovementInternalConsumption MovementKind = "internal_consumption"
	MovementAdjustment          MovementKind = "adjustment"
	MovementDeleted             MovementKind = "deleted"
)

// MovementKinds todos los tipos válidos.
var MovementKinds = []MovementKind{
	MovementInitial, MovementEdit, MovementSale, MovementReversal,
	MovementInternalConsumption, MovementAdjustment, MovementDeleted,
}

// Valid indica si k es uno de los tipos conocidos.
func (k MovementKind) Valid() bool {
	for _, x := range MovementKinds {
		if x == k {
			return true
		}
	}
	return false
}

// MovementMeta datos de conversión y valorización congelados al momento del asiento.
type MovementMeta struct {
	Unit          Unit            `json:"unit,omitempty"`
	Factor        decimal.Decimal `json:"factor"`
	OriginalQty   decimal.Decimal `json:"originalQty"`
	PriceSnapshot decimal.Decimal `json:"priceSnapshot"`
	CostSnapshot  decimal.Decimal `json:"costSnapshot"`
	Inferred      bool            `json:"inferred,omitempty"`
	Ref           string          `json:"ref,omitempty"`
}

// Movement asiento inmutable del kardex. Quantity es siempre no negativa; el sentido
// lo da Kind. ID es monotónico y define el orden de aplicación por producto.
type Movement struct {
	ID             int64
	ProductID      string
	ProductName    string
	Kind           MovementKind
	Quantity       decimal.Decimal
	ResultingStock decimal.Decimal
	Reason         string
	ActorID        string
	Meta           MovementMeta
	CreatedAt      time.Time
}
