package services

import (
	"fmt"
	"time"

	"fluxachat/models"
)

// IngestionStore is the persistence surface for response ingestion.
type IngestionStore interface {
	GetQuoteLines(rfqUUID string) ([]models.QuoteLine, error)
	// ReplaceResponse persists the header and its details, superseding any
	// previous response for the same RFQ.
	ReplaceResponse(header *models.ResponseHeader, details []models.ResponseDetail) error
	SaveRejection(rej *models.Rejection) error
	GetSupplier(code string) (*models.Supplier, error)
	SaveSupplierMetrics(s *models.Supplier) error
	MarkDAQuotesReceived(numeroDA string) error
}

// IngestionService validates and stores supplier replies, drives the RFQ
// state machine and keeps the supplier counters current.
type IngestionService struct {
	store     IngestionStore
	lifecycle *LifecycleService
	audit     AuditSink
}

func NewIngestionService(store IngestionStore, lifecycle *LifecycleService, audit AuditSink) *IngestionService {
	return &IngestionService{store: store, lifecycle: lifecycle, audit: audit}
}

// RecordResponse ingests one supplier reply against an RFQ.
//
// Preconditions: the RFQ exists and is receivable, every line references a
// quote line of that RFQ, prices are non-negative. A resubmission while the
// RFQ is already repondu (and not yet expired) supersedes the previous
// header and details. On first response the RFQ transitions to repondu and
// the supplier counters are updated.
func (s *IngestionService) RecordResponse(rfqUUID string, req *models.RecordResponseRequest, ip string) (*models.ResponseHeader, error) {
	l := s.lifecycle.lockRFQ(rfqUUID)
	defer l.Unlock()

	rfq, err := s.lifecycle.store.GetRFQByUUID(rfqUUID)
	if err != nil {
		return nil, errUnknownRFQ(rfqUUID)
	}
	if rfq.Statut == models.RFQExpired {
		return nil, errLateResponse(rfqUUID, rfq.Statut)
	}
	resubmission := rfq.Statut == models.RFQAnswered
	if !rfq.IsReceivable() && !resubmission {
		return nil, errInvalidTransition(rfqUUID, rfq.Statut, "reponse")
	}

	lines, err := s.store.GetQuoteLines(rfqUUID)
	if err != nil {
		return nil, err
	}
	lineByID := make(map[int]models.QuoteLine, len(lines))
	for _, ql := range lines {
		lineByID[ql.ID] = ql
	}

	now := s.lifecycle.now()
	header := &models.ResponseHeader{
		RFQUUID:            rfqUUID,
		Devise:             req.Entete.Devise,
		ConditionsPaiement: req.Entete.ConditionsPaiement,
		Commentaire:        req.Entete.Commentaire,
		FichierDevisURL:    req.Entete.FichierDevisURL,
		DateReponse:        now,
	}

	details := make([]models.ResponseDetail, 0, len(req.Lignes))
	daSeen := make(map[string]bool)
	for _, lr := range req.Lignes {
		ql, ok := lineByID[lr.LigneCotationID]
		if !ok {
			return nil, &DomainError{
				Kind:    KindUnknownQuoteLine,
				RFQUUID: rfqUUID,
				Message: fmt.Sprintf("ligne de cotation %d inconnue pour cette RFQ", lr.LigneCotationID),
			}
		}
		if lr.PrixUnitaireHT < 0 {
			return nil, &DomainError{
				Kind:        KindInvalidPrice,
				RFQUUID:     rfqUUID,
				NumeroDA:    ql.NumeroDA,
				CodeArticle: ql.CodeArticle,
				Message:     fmt.Sprintf("prix unitaire negatif (%f) pour %s", lr.PrixUnitaireHT, ql.CodeArticle),
			}
		}
		details = append(details, models.ResponseDetail{
			RFQUUID:            rfqUUID,
			LigneCotationID:    ql.ID,
			CodeArticle:        ql.CodeArticle,
			PrixUnitaireHT:     lr.PrixUnitaireHT,
			QuantiteDisponible: lr.QuantiteDisponible,
			MarqueProposee:     lr.MarqueProposee,
			MarqueConforme:     lr.MarqueConforme,
			DelaiLivraison:     lr.DelaiLivraison,
			DateLivraison:      lr.DateLivraison,
			FicheTechniqueURL:  lr.FicheTechniqueURL,
			CommentaireArticle: lr.CommentaireArticle,
		})
		daSeen[ql.NumeroDA] = true
	}

	if err := s.store.ReplaceResponse(header, details); err != nil {
		return nil, err
	}

	if resubmission {
		// Supersede only: state and counters were already settled by the
		// first submission, keep the latest response timestamp visible.
		rfq.DateReponse = &now
		rfq.IPReponse = ip
		if err := s.lifecycle.store.SaveRFQ(rfq); err != nil {
			return nil, err
		}
		s.audit.Record("rfq", rfq.NumeroRFQ, "reponse_remplacee", rfq.CodeFournisseur, ip)
		return header, nil
	}

	if err := s.lifecycle.transitionResponded(rfq, ip); err != nil {
		return nil, err
	}
	s.updateSupplierMetrics(rfq, now)

	for da := range daSeen {
		if err := s.store.MarkDAQuotesReceived(da); err != nil {
			return nil, err
		}
	}
	return header, nil
}

// RecordRejection ingests an explicit supplier refusal. A rejection is an
// answer: it terminates the RFQ and counts toward the supplier response
// metrics like a quote does.
func (s *IngestionService) RecordRejection(rfqUUID, motif, canal, ip string) error {
	l := s.lifecycle.lockRFQ(rfqUUID)
	defer l.Unlock()

	rfq, err := s.lifecycle.store.GetRFQByUUID(rfqUUID)
	if err != nil {
		return errUnknownRFQ(rfqUUID)
	}
	if err := s.lifecycle.transitionRejected(rfq, ip); err != nil {
		return err
	}

	if canal == "" {
		canal = models.RejectChannelWebform
	}
	now := s.lifecycle.now()
	if err := s.store.SaveRejection(&models.Rejection{
		RFQUUID:   rfqUUID,
		Motif:     motif,
		Canal:     canal,
		DateRejet: now,
	}); err != nil {
		return err
	}
	s.updateSupplierMetrics(rfq, now)
	return nil
}

// updateSupplierMetrics advances the rolling response counters: response
// count, response rate and average latency from RFQ send to this answer.
// Failures here are logged, not surfaced: metrics must never void an
// already-committed response.
func (s *IngestionService) updateSupplierMetrics(rfq *models.RFQ, answeredAt time.Time) {
	sup, err := s.store.GetSupplier(rfq.CodeFournisseur)
	if err != nil {
		s.lifecycle.log.WithError(err).WithField("fournisseur", rfq.CodeFournisseur).
			Warn("supplier metrics: load failed")
		return
	}
	latencyHours := int(answeredAt.Sub(rfq.DateEnvoi).Hours())
	if latencyHours < 0 {
		latencyHours = 0
	}
	prev := sup.NbReponses
	sup.NbReponses++
	sup.DelaiMoyenReponseHeures = (sup.DelaiMoyenReponseHeures*prev + latencyHours) / sup.NbReponses
	if sup.NbTotalRFQ > 0 {
		sup.TauxReponse = float64(sup.NbReponses) / float64(sup.NbTotalRFQ) * 100
	}
	if err := s.store.SaveSupplierMetrics(sup); err != nil {
		s.lifecycle.log.WithError(err).WithField("fournisseur", sup.CodeFournisseur).
			Warn("supplier metrics: save failed")
	}
}
