package models

import "time"

// AuditEvent is one append-only audit row: a state transition, a selection
// change or an order generation. Persisted through gorm.
type AuditEvent struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Entite    string    `json:"entite" gorm:"size:30;index"`
	Reference string    `json:"reference" gorm:"size:64;index"`
	Action    string    `json:"action" gorm:"size:40"`
	Acteur    string    `json:"acteur" gorm:"size:100"`
	Detail    string    `json:"detail" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName keeps the audit table aligned with the rest of the schema.
func (AuditEvent) TableName() string {
	return "audit_events"
}
