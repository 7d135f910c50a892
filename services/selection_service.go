package services

import (
	"fmt"
	"time"

	"fluxachat/models"
)

// ArticlePair identifies one (code_article, numero_da) selection key.
type ArticlePair struct {
	CodeArticle string
	NumeroDA    string
}

func (p ArticlePair) key() string {
	return p.CodeArticle + "|" + p.NumeroDA
}

// SelectionStore is the persistence surface for selections.
type SelectionStore interface {
	// GetSelectionByPair returns the active selection for the pair, or nil.
	GetSelectionByPair(codeArticle, numeroDA string) (*models.Selection, error)
	// UpsertSelection creates or replaces the selection for its pair.
	UpsertSelection(sel *models.Selection) error
	GetPurchaseRequestLine(numeroDA, codeArticle string) (*models.PurchaseRequest, error)
	// ListPairsWithOffers returns every pair that has at least one received
	// offer and no active selection yet.
	ListPairsWithOffers() ([]ArticlePair, error)
}

// SelectionService records the winning offer per (article, DA) pair,
// enforcing at most one active selection per pair by upsert-on-key.
type SelectionService struct {
	store      SelectionStore
	comparison *ComparisonService
	audit      AuditSink
	locks      *keyedLocks
	now        func() time.Time
}

func NewSelectionService(store SelectionStore, comparison *ComparisonService, audit AuditSink) *SelectionService {
	return &SelectionService{
		store:      store,
		comparison: comparison,
		audit:      audit,
		locks:      newKeyedLocks(),
		now:        time.Now,
	}
}

// SetClock overrides the time source. Test hook.
func (s *SelectionService) SetClock(now func() time.Time) {
	s.now = now
}

// Select records the chosen response detail as the winning offer for the
// pair. Selecting a pair that already has an active selection supersedes it;
// a selection already turned into an order is immutable.
func (s *SelectionService) Select(pair ArticlePair, detailID int, auto bool, actor string) (*models.Selection, error) {
	l := s.locks.Lock(pair.key())
	defer l.Unlock()
	return s.selectLocked(pair, detailID, auto, actor)
}

func (s *SelectionService) selectLocked(pair ArticlePair, detailID int, auto bool, actor string) (*models.Selection, error) {
	existing, err := s.store.GetSelectionByPair(pair.CodeArticle, pair.NumeroDA)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Statut == models.SelectionBCGenerated {
		return nil, &DomainError{
			Kind:        KindSelectionLocked,
			NumeroDA:    pair.NumeroDA,
			CodeArticle: pair.CodeArticle,
			Message:     fmt.Sprintf("selection deja convertie en BC %s", existing.NumeroBC),
		}
	}

	offers, err := s.comparison.store.GetOffers(pair.NumeroDA, pair.CodeArticle)
	if err != nil {
		return nil, err
	}
	var offer *models.Offre
	for i := range offers {
		if offers[i].DetailID == detailID {
			offer = &offers[i]
			break
		}
	}
	if offer == nil {
		return nil, &DomainError{
			Kind:        KindUnknownQuoteLine,
			NumeroDA:    pair.NumeroDA,
			CodeArticle: pair.CodeArticle,
			Message:     fmt.Sprintf("le detail %d n'est pas une offre comparable pour cet article/DA", detailID),
		}
	}
	if offer.Blacklist {
		return nil, &DomainError{
			Kind:            KindBlacklistedSupplier,
			NumeroDA:        pair.NumeroDA,
			CodeArticle:     pair.CodeArticle,
			CodeFournisseur: offer.CodeFournisseur,
			Message:         "fournisseur blackliste, offre inselectionnable",
		}
	}

	line, err := s.store.GetPurchaseRequestLine(pair.NumeroDA, pair.CodeArticle)
	if err != nil {
		return nil, err
	}

	now := s.now()
	sel := &models.Selection{
		CodeArticle:     pair.CodeArticle,
		Designation:     line.DesignationArticle,
		NumeroDA:        pair.NumeroDA,
		Quantite:        line.Quantite,
		Unite:           line.Unite,
		CodeFournisseur: offer.CodeFournisseur,
		DetailID:        offer.DetailID,
		PrixSelectionne: offer.PrixUnitaireHT,
		Devise:          offer.Devise,
		MarqueProposee:  offer.MarqueProposee,
		MarqueConforme:  offer.MarqueConforme,
		DateLivraison:   offer.DateLivraison,
		DelaiLivraison:  offer.DelaiLivraison,
		SelectionAuto:   auto,
		ModifiePar:      actor,
		DateSelection:   now,
		Statut:          models.SelectionSelected,
	}
	if existing != nil {
		sel.ID = existing.ID
		sel.DateSelection = existing.DateSelection
		sel.DateModification = &now
	}
	if err := s.store.UpsertSelection(sel); err != nil {
		return nil, err
	}

	mode := "manuelle"
	if auto {
		mode = "auto"
	}
	s.audit.Record("selection", fmt.Sprintf("%s/%s", pair.NumeroDA, pair.CodeArticle),
		"selection_"+mode, actor, offer.CodeFournisseur)
	return sel, nil
}

// AutoSelect applies the comparison recommendation to every pair that has
// offers and no active selection. Pairs whose offers are all blacklisted are
// skipped. Returns the created selections.
func (s *SelectionService) AutoSelect(actor string) ([]models.Selection, error) {
	pairs, err := s.store.ListPairsWithOffers()
	if err != nil {
		return nil, err
	}

	var selections []models.Selection
	for _, pair := range pairs {
		cmp, err := s.comparison.GetComparison(pair.NumeroDA, pair.CodeArticle)
		if err != nil {
			return selections, err
		}
		if cmp.FournisseurRecommande == "" {
			continue
		}
		var detailID int
		for _, o := range cmp.Offres {
			if o.CodeFournisseur == cmp.FournisseurRecommande && !o.Blacklist {
				detailID = o.DetailID
				break
			}
		}
		if detailID == 0 {
			continue
		}
		sel, err := s.Select(pair, detailID, true, actor)
		if err != nil {
			// A pair locked or raced into bc_genere is not a scan failure.
			if IsKind(err, KindSelectionLocked) {
				continue
			}
			return selections, err
		}
		selections = append(selections, *sel)
	}
	return selections, nil
}
