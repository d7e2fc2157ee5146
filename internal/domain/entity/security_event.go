package entity

import "time"

// Niveles de severidad de un evento de seguridad.
const (
	SeverityInfo     = "info"
	SeverityWarn     = "warn"
	SeverityCritical = "critical"
)

// SecurityEvent evento del log de seguridad (solo se agrega, nunca se modifica).
type SecurityEvent struct {
	ID        int64
	Kind      string
	ActorID   string
	Subject   string
	Detail    map[string]any
	Severity  string
	Timestamp time.Time
}
