package services

import (
	"fmt"
	"time"

	"fluxachat/config"
	"fluxachat/models"

	"github.com/sirupsen/logrus"
)

// OrderStore is the persistence surface for order consolidation.
type OrderStore interface {
	GetSelectionsByIDs(ids []int) ([]models.Selection, error)
	GetSupplier(code string) (*models.Supplier, error)
	// GetDetailProvenance resolves a response detail back to its RFQ and
	// response header.
	GetDetailProvenance(detailID int) (rfqUUID string, enteteID int, err error)
	// NextOrderSequence reserves and returns the next order number for the
	// given year. Numbers are never reused, even if generation later fails.
	NextOrderSequence(year int) (int, error)
	// SaveOrder persists the order and its lines as one unit.
	SaveOrder(order *models.PurchaseOrder) error
	GetOrderByNumero(numeroBC string) (*models.PurchaseOrder, error)
	UpdateOrder(order *models.PurchaseOrder) error
	MarkSelectionsOrdered(ids []int, numeroBC string) error
	// DALinesWithoutOrder counts the article lines of a DA that have no
	// bc_genere selection yet.
	DALinesWithoutOrder(numeroDA string) (int, error)
	MarkDAOrderCreated(numeroDA string) error
}

// GenerationFailure reports one supplier partition that produced no order.
type GenerationFailure struct {
	CodeFournisseur string       `json:"code_fournisseur"`
	Erreur          *DomainError `json:"erreur"`
}

// GenerationResult is the outcome of one consolidation run. Partitions are
// independent: a failed supplier never voids the orders of the others.
type GenerationResult struct {
	Commandes []models.PurchaseOrder `json:"commandes"`
	Echecs    []GenerationFailure    `json:"echecs,omitempty"`
}

// OrderService consolidates selected offers into purchase orders, one per
// supplier, and closes the purchase requests they complete.
type OrderService struct {
	store OrderStore
	cfg   *config.Provider
	audit AuditSink
	locks *keyedLocks
	now   func() time.Time
	log   *logrus.Logger
}

func NewOrderService(store OrderStore, cfg *config.Provider, audit AuditSink, log *logrus.Logger) *OrderService {
	return &OrderService{
		store: store,
		cfg:   cfg,
		audit: audit,
		locks: newKeyedLocks(),
		now:   time.Now,
		log:   log,
	}
}

// SetClock overrides the time source. Test hook.
func (s *OrderService) SetClock(now func() time.Time) {
	s.now = now
}

// GenerateOrders consolidates the given selections into purchase orders.
//
// Selections are partitioned by supplier and each partition is all or
// nothing: any invalid selection in a partition aborts that supplier's order
// without touching the other partitions. Totals are recomputed from the
// lines. Selections turned into an order move to bc_genere, and a DA whose
// article lines are all ordered moves to commande_creee.
func (s *OrderService) GenerateOrders(req *models.GenerateOrdersRequest, actor string) (*GenerationResult, error) {
	if len(req.SelectionIDs) == 0 {
		return nil, &DomainError{
			Kind:    KindOrderGenerationAborted,
			Message: "aucune selection fournie",
		}
	}
	selections, err := s.store.GetSelectionsByIDs(req.SelectionIDs)
	if err != nil {
		return nil, err
	}
	if len(selections) != len(req.SelectionIDs) {
		return nil, &DomainError{
			Kind:    KindOrderGenerationAborted,
			Message: fmt.Sprintf("%d selection(s) introuvable(s) sur %d demandee(s)", len(req.SelectionIDs)-len(selections), len(req.SelectionIDs)),
		}
	}

	partitions := make(map[string][]models.Selection)
	var order []string
	for _, sel := range selections {
		if _, seen := partitions[sel.CodeFournisseur]; !seen {
			order = append(order, sel.CodeFournisseur)
		}
		partitions[sel.CodeFournisseur] = append(partitions[sel.CodeFournisseur], sel)
	}

	result := &GenerationResult{}
	for _, code := range order {
		po, err := s.generateForSupplier(code, partitions[code], req, actor)
		if err != nil {
			de := AsDomainError(err)
			if de == nil {
				return result, err
			}
			result.Echecs = append(result.Echecs, GenerationFailure{CodeFournisseur: code, Erreur: de})
			continue
		}
		result.Commandes = append(result.Commandes, *po)
	}
	return result, nil
}

// generateForSupplier builds one order from one supplier's selections, under
// the supplier lock so two concurrent runs cannot consume the same selection.
func (s *OrderService) generateForSupplier(code string, selections []models.Selection, req *models.GenerateOrdersRequest, actor string) (*models.PurchaseOrder, error) {
	l := s.locks.Lock("fournisseur|" + code)
	defer l.Unlock()

	sup, err := s.store.GetSupplier(code)
	if err != nil {
		return nil, err
	}
	if sup.Blacklist {
		return nil, &DomainError{
			Kind:            KindBlacklistedSupplier,
			CodeFournisseur: code,
			Message:         "fournisseur blackliste, generation de commande refusee",
		}
	}

	// Reload under the lock: another run may have consumed a selection.
	ids := make([]int, len(selections))
	for i, sel := range selections {
		ids[i] = sel.ID
	}
	selections, err = s.store.GetSelectionsByIDs(ids)
	if err != nil {
		return nil, err
	}

	devise := ""
	for _, sel := range selections {
		if sel.Devise == "" {
			continue
		}
		if devise == "" {
			devise = sel.Devise
		} else if sel.Devise != devise {
			return nil, &DomainError{
				Kind:            KindOrderGenerationAborted,
				CodeFournisseur: code,
				Message:         fmt.Sprintf("devises mixtes (%s et %s) dans la meme commande", devise, sel.Devise),
			}
		}
	}
	if devise == "" {
		devise = s.cfg.GetString(config.KeyDefaultCurrency)
	}
	for _, sel := range selections {
		if sel.Statut == models.SelectionBCGenerated {
			return nil, &DomainError{
				Kind:            KindSelectionLocked,
				NumeroDA:        sel.NumeroDA,
				CodeArticle:     sel.CodeArticle,
				CodeFournisseur: code,
				Message:         fmt.Sprintf("selection %d deja convertie en BC %s", sel.ID, sel.NumeroBC),
			}
		}
		if sel.Quantite <= 0 {
			return nil, &DomainError{
				Kind:            KindInvalidQuantity,
				NumeroDA:        sel.NumeroDA,
				CodeArticle:     sel.CodeArticle,
				CodeFournisseur: code,
				Message:         fmt.Sprintf("quantite invalide (%g) pour %s, commande abandonnee", sel.Quantite, sel.CodeArticle),
			}
		}
	}

	now := s.now()
	seq, err := s.store.NextOrderSequence(now.Year())
	if err != nil {
		return nil, err
	}
	numeroBC := fmt.Sprintf("BC-%d-%04d", now.Year(), seq)

	tva := s.cfg.GetFloat(config.KeyDefaultTaxRate)
	po := &models.PurchaseOrder{
		NumeroBC:           numeroBC,
		CodeFournisseur:    code,
		NomFournisseur:     sup.NomFournisseur,
		EmailFournisseur:   sup.Email,
		TVAPourcent:        tva,
		Devise:             devise,
		Statut:             models.OrderDraft,
		ConditionsPaiement: req.ConditionsPaiement,
		LieuLivraison:      req.LieuLivraison,
		Commentaire:        req.Commentaire,
		CreeePar:           actor,
		DateCommande:       now,
	}

	for _, sel := range selections {
		rfqUUID, enteteID, err := s.store.GetDetailProvenance(sel.DetailID)
		if err != nil {
			return nil, err
		}
		ht := sel.Quantite * sel.PrixSelectionne
		po.Lignes = append(po.Lignes, models.OrderLine{
			NumeroBC:            numeroBC,
			SelectionID:         sel.ID,
			DetailID:            sel.DetailID,
			ReponseEnteteID:     enteteID,
			RFQUUID:             rfqUUID,
			NumeroDA:            sel.NumeroDA,
			CodeArticle:         sel.CodeArticle,
			Designation:         sel.Designation,
			Quantite:            sel.Quantite,
			Unite:               sel.Unite,
			PrixUnitaireHT:      sel.PrixSelectionne,
			MontantLigneHT:      ht,
			TVAPourcent:         tva,
			MontantLigneTVA:     ht * tva / 100,
			MontantLigneTTC:     ht * (1 + tva/100),
			DateLivraisonPrevue: sel.DateLivraison,
		})
	}
	RecomputeTotals(po)

	if err := s.store.SaveOrder(po); err != nil {
		return nil, err
	}
	if err := s.store.MarkSelectionsOrdered(ids, numeroBC); err != nil {
		return nil, err
	}
	s.audit.Record("commande", numeroBC, "bc_genere", actor,
		fmt.Sprintf("%d ligne(s), %s %.2f HT", len(po.Lignes), devise, po.MontantTotalHT))

	s.closeCompletedDAs(po)
	return po, nil
}

// closeCompletedDAs moves every DA fully covered by generated orders to
// commande_creee. A DA failure is logged, not surfaced: the order itself is
// already committed.
func (s *OrderService) closeCompletedDAs(po *models.PurchaseOrder) {
	seen := make(map[string]bool)
	for _, line := range po.Lignes {
		if seen[line.NumeroDA] {
			continue
		}
		seen[line.NumeroDA] = true
		pending, err := s.store.DALinesWithoutOrder(line.NumeroDA)
		if err != nil {
			s.log.WithError(err).WithField("da", line.NumeroDA).Warn("cloture DA: lecture impossible")
			continue
		}
		if pending > 0 {
			continue
		}
		if err := s.store.MarkDAOrderCreated(line.NumeroDA); err != nil {
			s.log.WithError(err).WithField("da", line.NumeroDA).Warn("cloture DA: mise a jour impossible")
			continue
		}
		s.audit.Record("da", line.NumeroDA, models.DAOrderCreated, "system", po.NumeroBC)
	}
}

// RecomputeTotals rebuilds the order totals from its lines. Totals are never
// accumulated incrementally.
func RecomputeTotals(po *models.PurchaseOrder) {
	var ht, tva, ttc float64
	for _, line := range po.Lignes {
		ht += line.MontantLigneHT
		tva += line.MontantLigneTVA
		ttc += line.MontantLigneTTC
	}
	po.MontantTotalHT = ht
	po.MontantTVA = tva
	po.MontantTotalTTC = ttc
}

// ValidateOrder moves a draft order to validee.
func (s *OrderService) ValidateOrder(numeroBC, actor string) (*models.PurchaseOrder, error) {
	l := s.locks.Lock("bc|" + numeroBC)
	defer l.Unlock()

	po, err := s.store.GetOrderByNumero(numeroBC)
	if err != nil {
		return nil, err
	}
	if po.Statut != models.OrderDraft {
		return nil, &DomainError{
			Kind:    KindInvalidTransition,
			Message: fmt.Sprintf("commande %s en etat %s, validation impossible", numeroBC, po.Statut),
		}
	}
	now := s.now()
	po.Statut = models.OrderValidated
	po.ValideePar = actor
	po.DateValidation = &now
	if err := s.store.UpdateOrder(po); err != nil {
		return nil, err
	}
	s.audit.Record("commande", numeroBC, "validee", actor, "")
	return po, nil
}
