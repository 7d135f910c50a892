package storage

import (
	"fluxachat/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AuditLogger persists audit events through gorm and mirrors them to the
// structured log. Record never blocks the caller: events go through a
// buffered channel and a full buffer drops to log-only.
type AuditLogger struct {
	db     *gorm.DB
	log    *logrus.Logger
	events chan models.AuditEvent
}

func NewAuditLogger(db *gorm.DB, log *logrus.Logger) *AuditLogger {
	a := &AuditLogger{
		db:     db,
		log:    log,
		events: make(chan models.AuditEvent, 256),
	}
	go a.drain()
	return a
}

// Record implements services.AuditSink.
func (a *AuditLogger) Record(entite, reference, action, acteur, detail string) {
	event := models.AuditEvent{
		Entite:    entite,
		Reference: reference,
		Action:    action,
		Acteur:    acteur,
		Detail:    detail,
	}
	a.log.WithFields(logrus.Fields{
		"entite":    entite,
		"reference": reference,
		"action":    action,
		"acteur":    acteur,
	}).Info("audit")

	select {
	case a.events <- event:
	default:
		a.log.WithField("reference", reference).Warn("audit buffer full, event not persisted")
	}
}

func (a *AuditLogger) drain() {
	for event := range a.events {
		if err := a.db.Create(&event).Error; err != nil {
			a.log.WithError(err).WithField("reference", event.Reference).Error("audit persist failed")
		}
	}
}
