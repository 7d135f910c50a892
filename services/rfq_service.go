package services

import (
	"fmt"
	"time"

	"fluxachat/config"
	"fluxachat/models"

	"github.com/google/uuid"
)

// InvitationMailer sends the initial consultation email. Fire-and-forget,
// like RelanceMailer.
type InvitationMailer interface {
	SendInvitation(rfq *models.RFQ)
}

// RFQIssueStore is the persistence surface for RFQ issuance.
type RFQIssueStore interface {
	GetSupplier(code string) (*models.Supplier, error)
	// NextRFQSequence reserves and returns the next RFQ number for the year.
	NextRFQSequence(year int) (int, error)
	// CreateRFQ persists the RFQ and its quote lines as one unit.
	CreateRFQ(rfq *models.RFQ) error
	IncrementSupplierRFQCount(code string) error
	MarkDAInProgress(numeroDA string) error
}

// RFQService issues consultations: one RFQ per supplier covering a batch of
// DA article lines.
type RFQService struct {
	store  RFQIssueStore
	cfg    *config.Provider
	audit  AuditSink
	mailer InvitationMailer
	now    func() time.Time
}

func NewRFQService(store RFQIssueStore, cfg *config.Provider, audit AuditSink, mailer InvitationMailer) *RFQService {
	return &RFQService{
		store:  store,
		cfg:    cfg,
		audit:  audit,
		mailer: mailer,
		now:    time.Now,
	}
}

// SetClock overrides the time source. Test hook.
func (s *RFQService) SetClock(now func() time.Time) {
	s.now = now
}

// IssueRFQ creates and sends one RFQ to one supplier. The RFQ starts in
// envoye, carries a fresh public UUID and a sequential numero, bumps the
// supplier's solicitation counter and moves every covered DA to en_cours.
func (s *RFQService) IssueRFQ(req *models.IssueRFQRequest, actor string) (*models.RFQ, error) {
	sup, err := s.store.GetSupplier(req.CodeFournisseur)
	if err != nil {
		return nil, err
	}
	if sup.Blacklist {
		return nil, &DomainError{
			Kind:            KindBlacklistedSupplier,
			CodeFournisseur: sup.CodeFournisseur,
			Message:         "fournisseur blackliste, consultation refusee",
		}
	}
	if len(req.Lignes) == 0 {
		return nil, &DomainError{
			Kind:            KindInvalidQuantity,
			CodeFournisseur: sup.CodeFournisseur,
			Message:         "aucune ligne a consulter",
		}
	}
	for _, line := range req.Lignes {
		if line.Quantite <= 0 {
			return nil, &DomainError{
				Kind:        KindInvalidQuantity,
				NumeroDA:    line.NumeroDA,
				CodeArticle: line.CodeArticle,
				Message:     fmt.Sprintf("quantite invalide (%g) pour %s", line.Quantite, line.CodeArticle),
			}
		}
	}

	now := s.now()
	seq, err := s.store.NextRFQSequence(now.Year())
	if err != nil {
		return nil, err
	}
	limite := now.AddDate(0, 0, s.cfg.GetInt(config.KeyRFQExpirationDays))
	rfq := &models.RFQ{
		UUID:              uuid.NewString(),
		NumeroRFQ:         fmt.Sprintf("RFQ-%d-%04d", now.Year(), seq),
		CodeFournisseur:   sup.CodeFournisseur,
		DateEnvoi:         now,
		DateLimiteReponse: &limite,
		Statut:            models.RFQSent,
		NomFournisseur:    sup.NomFournisseur,
		EmailFournisseur:  sup.Email,
	}
	for _, line := range req.Lignes {
		rfq.Lignes = append(rfq.Lignes, models.QuoteLine{
			RFQUUID:            rfq.UUID,
			NumeroDA:           line.NumeroDA,
			CodeArticle:        line.CodeArticle,
			DesignationArticle: line.DesignationArticle,
			QuantiteDemandee:   line.Quantite,
			Unite:              line.Unite,
			MarqueSouhaitee:    line.MarqueSouhaitee,
		})
	}

	if err := s.store.CreateRFQ(rfq); err != nil {
		return nil, err
	}
	if err := s.store.IncrementSupplierRFQCount(sup.CodeFournisseur); err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	for _, line := range rfq.Lignes {
		if seen[line.NumeroDA] {
			continue
		}
		seen[line.NumeroDA] = true
		if err := s.store.MarkDAInProgress(line.NumeroDA); err != nil {
			return nil, err
		}
	}

	s.audit.Record("rfq", rfq.NumeroRFQ, "rfq_envoyee", actor, sup.CodeFournisseur)
	s.mailer.SendInvitation(rfq)
	return rfq, nil
}
