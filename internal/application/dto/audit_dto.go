package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/internal/domain/entity"
)

// AuditTemplateRequest plantilla de productos a contar.
type AuditTemplateRequest struct {
	Name       string   `json:"name" validate:"required,max=200"`
	ProductIDs []string `json:"product_ids" validate:"required,min=1,dive,required"`
}

// AuditTemplateResponse plantilla registrada.
type AuditTemplateResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	ProductIDs []string  `json:"product_ids"`
	CreatedAt  time.Time `json:"created_at"`
}

// FromAuditTemplate mapea la plantilla.
func FromAuditTemplate(t *entity.AuditTemplate) AuditTemplateResponse {
	return AuditTemplateResponse{ID: t.ID, Name: t.Name, ProductIDs: t.ProductIDs, CreatedAt: t.CreatedAt}
}

// StartAuditRequest inicio de sesión a partir de una plantilla.
type StartAuditRequest struct {
	TemplateID string `json:"template_id" validate:"required"`
	Name       string `json:"name" validate:"max=200"`
}

// CountRequest conteo plano (count) o desglosado (breakdown). Exactamente uno.
type CountRequest struct {
	Count     *decimal.Decimal       `json:"count"`
	Breakdown *entity.CountBreakdown `json:"breakdown"`
}

// ResolveRequest acción sobre una partida.
type ResolveRequest struct {
	Action string `json:"action" validate:"required"`
}

// AuditItemResponse partida con su diferencia.
type AuditItemResponse struct {
	entity.AuditItem
	Difference decimal.Decimal `json:"difference"`
}

// AuditSessionResponse sesión de auditoría.
type AuditSessionResponse struct {
	ID         string              `json:"id"`
	TemplateID string              `json:"template_id"`
	Name       string              `json:"name"`
	Status     string              `json:"status"`
	Items      []AuditItemResponse `json:"items"`
	StartedBy  string              `json:"started_by"`
	StartedAt  time.Time           `json:"started_at"`
	ClosedAt   *time.Time          `json:"closed_at,omitempty"`
}

// FromAuditItem mapea una partida.
func FromAuditItem(it entity.AuditItem) AuditItemResponse {
	return AuditItemResponse{AuditItem: it, Difference: it.Difference()}
}

// FromAuditSession mapea la sesión.
func FromAuditSession(s *entity.AuditSession) AuditSessionResponse {
	items := make([]AuditItemResponse, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, FromAuditItem(it))
	}
	return AuditSessionResponse{
		ID:         s.ID,
		TemplateID: s.TemplateID,
		Name:       s.Name,
		Status:     s.Status,
		Items:      items,
		StartedBy:  s.StartedBy,
		StartedAt:  s.StartedAt,
		ClosedAt:   s.ClosedAt,
	}
}

// SecurityEventResponse evento del log de seguridad.
type SecurityEventResponse struct {
	ID        int64          `json:"id"`
	Kind      string         `json:"kind"`
	ActorID   string         `json:"actor_id"`
	Subject   string         `json:"subject"`
	Detail    map[string]any `json:"detail,omitempty"`
	Severity  string         `json:"severity"`
	Timestamp time.Time      `json:"timestamp"`
}

// FromSecurityEvent mapea el evento.
func FromSecurityEvent(e *entity.SecurityEvent) SecurityEventResponse {
	return SecurityEventResponse{
		ID:        e.ID,
		Kind:      e.Kind,
		ActorID:   e.ActorID,
		Subject:   e.Subject,
		Detail:    e.Detail,
		Severity:  e.Severity,
		Timestamp: e.Timestamp,
	}
}
