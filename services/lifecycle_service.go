package services

import (
	"fmt"
	"sync"
	"time"

	"fluxachat/config"
	"fluxachat/models"

	"github.com/sirupsen/logrus"
)

// RFQStore is the persistence surface the lifecycle needs.
type RFQStore interface {
	GetRFQByUUID(uuid string) (*models.RFQ, error)
	SaveRFQ(rfq *models.RFQ) error
	ListOpenRFQs() ([]models.RFQ, error)
}

// AuditSink receives every state transition. Implementations must not block
// the caller; delivery is fire-and-forget.
type AuditSink interface {
	Record(entite, reference, action, acteur, detail string)
}

// RelanceMailer sends the re-notification on escalation. Fire-and-forget:
// the lifecycle never waits on delivery before committing a transition.
type RelanceMailer interface {
	SendRelance(rfq *models.RFQ, numRelance int)
}

// LifecycleService owns the RFQ state machine. All transitions go through
// here under a per-RFQ lock; callers never write statut columns directly.
type LifecycleService struct {
	store  RFQStore
	cfg    *config.Provider
	audit  AuditSink
	mailer RelanceMailer
	locks  *keyedLocks
	now    func() time.Time
	log    *logrus.Logger
}

// NewLifecycleService wires the state machine with its collaborators.
func NewLifecycleService(store RFQStore, cfg *config.Provider, audit AuditSink, mailer RelanceMailer, log *logrus.Logger) *LifecycleService {
	return &LifecycleService{
		store:  store,
		cfg:    cfg,
		audit:  audit,
		mailer: mailer,
		locks:  newKeyedLocks(),
		now:    time.Now,
		log:    log,
	}
}

// SetClock overrides the time source. Test hook.
func (s *LifecycleService) SetClock(now func() time.Time) {
	s.now = now
}

// lockRFQ serializes all mutations of one RFQ. Inbound events block until
// the lock is free; the escalation scan uses tryLockRFQ instead.
func (s *LifecycleService) lockRFQ(uuid string) *sync.Mutex {
	return s.locks.Lock(uuid)
}

func (s *LifecycleService) tryLockRFQ(uuid string) (*sync.Mutex, bool) {
	return s.locks.TryLock(uuid)
}

// RecordOpen handles the first tracking-pixel hit: envoye moves to vu, the
// open timestamp and origin address are recorded once. Later opens and opens
// on terminal RFQs are ignored.
func (s *LifecycleService) RecordOpen(uuid, ip string) error {
	l := s.lockRFQ(uuid)
	defer l.Unlock()

	rfq, err := s.store.GetRFQByUUID(uuid)
	if err != nil {
		return errUnknownRFQ(uuid)
	}
	if rfq.IsTerminal() {
		return nil
	}

	changed := false
	if rfq.DateOuvertureEmail == nil {
		t := s.now()
		rfq.DateOuvertureEmail = &t
		rfq.IPOuverture = ip
		changed = true
	}
	if rfq.Statut == models.RFQSent {
		rfq.Statut = models.RFQViewed
		changed = true
	}
	if !changed {
		return nil
	}
	if err := s.store.SaveRFQ(rfq); err != nil {
		return err
	}
	s.audit.Record("rfq", rfq.NumeroRFQ, "ouverture_email", rfq.CodeFournisseur, ip)
	return nil
}

// RecordClick records the first click on the public response form link.
// Click tracking never changes the lifecycle state.
func (s *LifecycleService) RecordClick(uuid, ip string) error {
	l := s.lockRFQ(uuid)
	defer l.Unlock()

	rfq, err := s.store.GetRFQByUUID(uuid)
	if err != nil {
		return errUnknownRFQ(uuid)
	}
	if rfq.IsTerminal() || rfq.DateClicFormulaire != nil {
		return nil
	}
	t := s.now()
	rfq.DateClicFormulaire = &t
	if err := s.store.SaveRFQ(rfq); err != nil {
		return err
	}
	s.audit.Record("rfq", rfq.NumeroRFQ, "clic_formulaire", rfq.CodeFournisseur, ip)
	return nil
}

// transitionResponded applies the repondu transition on an already-locked,
// already-loaded RFQ. Legality: any receivable state; expire beats late data.
func (s *LifecycleService) transitionResponded(rfq *models.RFQ, ip string) error {
	if rfq.Statut == models.RFQExpired {
		return errLateResponse(rfq.UUID, rfq.Statut)
	}
	if !rfq.IsReceivable() {
		return errInvalidTransition(rfq.UUID, rfq.Statut, "reponse")
	}
	t := s.now()
	rfq.Statut = models.RFQAnswered
	rfq.DateReponse = &t
	rfq.IPReponse = ip
	if err := s.store.SaveRFQ(rfq); err != nil {
		return err
	}
	s.audit.Record("rfq", rfq.NumeroRFQ, "repondu", rfq.CodeFournisseur, ip)
	return nil
}

// transitionRejected applies the rejete transition, same legality rule.
func (s *LifecycleService) transitionRejected(rfq *models.RFQ, ip string) error {
	if rfq.Statut == models.RFQExpired {
		return errLateResponse(rfq.UUID, rfq.Statut)
	}
	if !rfq.IsReceivable() {
		return errInvalidTransition(rfq.UUID, rfq.Statut, "rejet")
	}
	t := s.now()
	rfq.Statut = models.RFQRejected
	rfq.DateReponse = &t
	rfq.IPReponse = ip
	if err := s.store.SaveRFQ(rfq); err != nil {
		return err
	}
	s.audit.Record("rfq", rfq.NumeroRFQ, "rejete", rfq.CodeFournisseur, ip)
	return nil
}

type escalationAction int

const (
	actionNone escalationAction = iota
	actionRelance
	actionExpire
)

// lastActivity is the reference point for the relance interval: the send
// date, pushed forward by the first open and by each relance.
func lastActivity(rfq *models.RFQ) time.Time {
	last := rfq.DateEnvoi
	if rfq.DateOuvertureEmail != nil && rfq.DateOuvertureEmail.After(last) {
		last = *rfq.DateOuvertureEmail
	}
	if rfq.DateDerniereRelance != nil && rfq.DateDerniereRelance.After(last) {
		last = *rfq.DateDerniereRelance
	}
	return last
}

// evaluateEscalation decides the scan outcome for one RFQ. Absolute expiry
// takes priority over any further relance, even mid-sequence.
func evaluateEscalation(rfq *models.RFQ, now time.Time, intervalDays, maxRelances, expirationDays int) escalationAction {
	if rfq.IsTerminal() {
		return actionNone
	}
	if now.Sub(rfq.DateEnvoi) >= time.Duration(expirationDays)*24*time.Hour {
		return actionExpire
	}
	if now.Sub(lastActivity(rfq)) < time.Duration(intervalDays)*24*time.Hour {
		return actionNone
	}
	if rfq.NbRelances < maxRelances {
		return actionRelance
	}
	return actionExpire
}

// EscalationScan inspects every non-terminal RFQ and applies the time-driven
// transitions. One RFQ is one atomic unit: a locked RFQ (an inbound response
// being handled) is skipped, and a failure on one RFQ never aborts the scan
// for the rest. Returns the number of relances sent and expirations applied.
func (s *LifecycleService) EscalationScan() (relances, expirations int) {
	rfqs, err := s.store.ListOpenRFQs()
	if err != nil {
		s.log.WithError(err).Error("escalation scan: listing open RFQs failed")
		return 0, 0
	}

	intervalDays := s.cfg.GetInt(config.KeyRelanceIntervalDays)
	maxRelances := s.cfg.GetInt(config.KeyMaxRelances)
	expirationDays := s.cfg.GetInt(config.KeyRFQExpirationDays)

	for i := range rfqs {
		uuid := rfqs[i].UUID
		l, ok := s.tryLockRFQ(uuid)
		if !ok {
			// Response in flight for this RFQ; response wins.
			continue
		}
		func() {
			defer l.Unlock()

			rfq, err := s.store.GetRFQByUUID(uuid)
			if err != nil {
				s.log.WithError(err).WithField("rfq", uuid).Error("escalation scan: reload failed")
				return
			}
			now := s.now()
			switch evaluateEscalation(rfq, now, intervalDays, maxRelances, expirationDays) {
			case actionRelance:
				rfq.NbRelances++
				rfq.Statut = fmt.Sprintf("relance_%d", rfq.NbRelances)
				t := now
				rfq.DateDerniereRelance = &t
				if err := s.store.SaveRFQ(rfq); err != nil {
					s.log.WithError(err).WithField("rfq", uuid).Error("escalation scan: save failed")
					return
				}
				relances++
				s.audit.Record("rfq", rfq.NumeroRFQ, rfq.Statut, "system", "relance automatique")
				s.mailer.SendRelance(rfq, rfq.NbRelances)
			case actionExpire:
				rfq.Statut = models.RFQExpired
				if err := s.store.SaveRFQ(rfq); err != nil {
					s.log.WithError(err).WithField("rfq", uuid).Error("escalation scan: save failed")
					return
				}
				expirations++
				s.audit.Record("rfq", rfq.NumeroRFQ, models.RFQExpired, "system", "expiration automatique")
			}
		}()
	}
	return relances, expirations
}
