package services

import (
	"fmt"
	"math"
	"sort"
	"time"

	"fluxachat/config"
	"fluxachat/models"
)

// ComparisonStore is the persistence surface for offer aggregation and the
// buyer decision on a pair.
type ComparisonStore interface {
	// GetOffers returns every offer received for the (numero_da,
	// code_article) pair, across all RFQs and suppliers, with the supplier
	// blacklist flag joined in.
	GetOffers(numeroDA, codeArticle string) ([]models.Offre, error)
	// CountRFQs returns how many RFQs were sent, answered and rejected for
	// the pair.
	CountRFQs(numeroDA, codeArticle string) (sent, responded, rejected int, err error)
	// GetDecision returns the stored verdict for the pair, or nil while the
	// comparison is still pending.
	GetDecision(numeroDA, codeArticle string) (*models.Decision, error)
	SaveDecision(d *models.Decision) error
}

// ComparisonService computes the scored rollup of competing offers and
// records the buyer verdict on it.
type ComparisonService struct {
	store ComparisonStore
	cfg   *config.Provider
	audit AuditSink
	locks *keyedLocks
	now   func() time.Time
}

func NewComparisonService(store ComparisonStore, cfg *config.Provider, audit AuditSink) *ComparisonService {
	return &ComparisonService{
		store: store,
		cfg:   cfg,
		audit: audit,
		locks: newKeyedLocks(),
		now:   time.Now,
	}
}

// SetClock overrides the time source. Test hook.
func (s *ComparisonService) SetClock(now func() time.Time) {
	s.now = now
}

// GetComparison assembles the Comparison for one (numero_da, code_article)
// pair from the stored offers and the configured weights.
func (s *ComparisonService) GetComparison(numeroDA, codeArticle string) (*models.Comparison, error) {
	offers, err := s.store.GetOffers(numeroDA, codeArticle)
	if err != nil {
		return nil, err
	}
	sent, responded, rejected, err := s.store.CountRFQs(numeroDA, codeArticle)
	if err != nil {
		return nil, err
	}
	cmp := Compare(numeroDA, codeArticle, offers, s.cfg.ScoreWeights())
	cmp.NbRFQEnvoyees = sent
	cmp.NbReponses = responded
	cmp.NbRejets = rejected

	dec, err := s.store.GetDecision(numeroDA, codeArticle)
	if err != nil {
		return nil, err
	}
	if dec != nil {
		cmp.StatutDecision = dec.Statut
		cmp.ValidePar = dec.ValidePar
		when := dec.DateValidation
		cmp.DateValidation = &when
	}
	return cmp, nil
}

// Decide records the buyer verdict on the comparison of one pair. Only
// validee and rejetee are accepted, the pair must have at least one offer,
// and a decided pair stays decided.
func (s *ComparisonService) Decide(numeroDA, codeArticle, statut, commentaire, acteur string) (*models.Decision, error) {
	if statut != models.DecisionValidated && statut != models.DecisionRejected {
		return nil, &DomainError{
			Kind:        KindInvalidTransition,
			NumeroDA:    numeroDA,
			CodeArticle: codeArticle,
			Message:     fmt.Sprintf("statut de decision %q invalide", statut),
		}
	}

	l := s.locks.Lock("decision:" + codeArticle + "|" + numeroDA)
	defer l.Unlock()

	existing, err := s.store.GetDecision(numeroDA, codeArticle)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &DomainError{
			Kind:        KindInvalidTransition,
			NumeroDA:    numeroDA,
			CodeArticle: codeArticle,
			Message:     fmt.Sprintf("comparaison deja %s", existing.Statut),
		}
	}

	offers, err := s.store.GetOffers(numeroDA, codeArticle)
	if err != nil {
		return nil, err
	}
	if len(offers) == 0 {
		return nil, &DomainError{
			Kind:        KindInvalidTransition,
			NumeroDA:    numeroDA,
			CodeArticle: codeArticle,
			Message:     "aucune offre recue pour cette paire",
		}
	}

	dec := &models.Decision{
		NumeroDA:       numeroDA,
		CodeArticle:    codeArticle,
		Statut:         statut,
		ValidePar:      acteur,
		Commentaire:    commentaire,
		DateValidation: s.now(),
	}
	if err := s.store.SaveDecision(dec); err != nil {
		return nil, err
	}
	s.audit.Record("comparaison", numeroDA+"/"+codeArticle, "decision_"+statut, acteur, commentaire)
	return dec, nil
}

// normalize maps x into [0,1] with the lowest value scoring 1.0. A degenerate
// range (min == max) scores 1.0 for everyone.
func normalize(x, min, max float64) float64 {
	if max == min {
		return 1.0
	}
	return 1.0 - (x-min)/(max-min)
}

// Score computes the weighted multi-criteria score of one offer against the
// price and lead-time bounds of its comparison set.
func Score(o models.Offre, prixMin, prixMax, delaiMin, delaiMax float64, w config.Weights) float64 {
	score := w.Price * normalize(o.PrixUnitaireHT, prixMin, prixMax)
	score += w.Delay * normalize(float64(o.DelaiLivraison), delaiMin, delaiMax)
	if o.MarqueConforme {
		score += w.Conformity
	}
	return score
}

// Compare aggregates the offers for one (numero_da, code_article) pair.
//
// Offers from blacklisted suppliers stay in the offer list and in the
// responded totals but are excluded from min/max/average and from every
// best-of and recommendation computation. The function is pure: the same
// offer set and weights always produce the same output.
func Compare(numeroDA, codeArticle string, offers []models.Offre, w config.Weights) *models.Comparison {
	cmp := &models.Comparison{
		NumeroDA:       numeroDA,
		CodeArticle:    codeArticle,
		StatutDecision: models.DecisionPending,
	}

	valid := make([]models.Offre, 0, len(offers))
	for _, o := range offers {
		if !o.Blacklist {
			valid = append(valid, o)
		}
	}

	if len(valid) > 0 {
		prixMin, prixMax := math.MaxFloat64, -math.MaxFloat64
		delaiMin, delaiMax := math.MaxFloat64, -math.MaxFloat64
		var sum float64
		for _, o := range valid {
			prixMin = math.Min(prixMin, o.PrixUnitaireHT)
			prixMax = math.Max(prixMax, o.PrixUnitaireHT)
			delaiMin = math.Min(delaiMin, float64(o.DelaiLivraison))
			delaiMax = math.Max(delaiMax, float64(o.DelaiLivraison))
			sum += o.PrixUnitaireHT
		}
		cmp.PrixMin = prixMin
		cmp.PrixMax = prixMax
		cmp.PrixMoyen = sum / float64(len(valid))
		if prixMin > 0 {
			cmp.EcartPrixPourcent = (prixMax - prixMin) / prixMin * 100
		}

		for i := range valid {
			valid[i].Score = Score(valid[i], prixMin, prixMax, delaiMin, delaiMax, w)
		}

		bestPrice := valid[0]
		for _, o := range valid[1:] {
			if o.PrixUnitaireHT < bestPrice.PrixUnitaireHT ||
				(o.PrixUnitaireHT == bestPrice.PrixUnitaireHT && o.DelaiLivraison < bestPrice.DelaiLivraison) ||
				(o.PrixUnitaireHT == bestPrice.PrixUnitaireHT && o.DelaiLivraison == bestPrice.DelaiLivraison &&
					o.CodeFournisseur < bestPrice.CodeFournisseur) {
				bestPrice = o
			}
		}
		cmp.MeilleurPrixFournisseur = bestPrice.CodeFournisseur
		cmp.MeilleurPrix = bestPrice.PrixUnitaireHT

		bestDelay := valid[0]
		for _, o := range valid[1:] {
			if o.DelaiLivraison < bestDelay.DelaiLivraison ||
				(o.DelaiLivraison == bestDelay.DelaiLivraison && o.PrixUnitaireHT < bestDelay.PrixUnitaireHT) ||
				(o.DelaiLivraison == bestDelay.DelaiLivraison && o.PrixUnitaireHT == bestDelay.PrixUnitaireHT &&
					o.CodeFournisseur < bestDelay.CodeFournisseur) {
				bestDelay = o
			}
		}
		cmp.MeilleurDelaiFournisseur = bestDelay.CodeFournisseur
		cmp.MeilleurDelaiJours = bestDelay.DelaiLivraison

		recommended := valid[0]
		for _, o := range valid[1:] {
			if o.Score > recommended.Score ||
				(o.Score == recommended.Score && o.CodeFournisseur < recommended.CodeFournisseur) {
				recommended = o
			}
		}
		cmp.FournisseurRecommande = recommended.CodeFournisseur
		cmp.ScoreRecommandation = recommended.Score
		cmp.RaisonRecommandation = fmt.Sprintf("score pondere %.3f sur %d offre(s) comparable(s)",
			recommended.Score, len(valid))
	}

	// Scores computed on the valid subset must be visible on the full list.
	scoreByDetail := make(map[int]float64, len(valid))
	for _, o := range valid {
		scoreByDetail[o.DetailID] = o.Score
	}
	all := make([]models.Offre, len(offers))
	copy(all, offers)
	for i := range all {
		all[i].Score = scoreByDetail[all[i].DetailID]
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].PrixUnitaireHT != all[j].PrixUnitaireHT {
			return all[i].PrixUnitaireHT < all[j].PrixUnitaireHT
		}
		if all[i].DelaiLivraison != all[j].DelaiLivraison {
			return all[i].DelaiLivraison < all[j].DelaiLivraison
		}
		return all[i].CodeFournisseur < all[j].CodeFournisseur
	})
	cmp.Offres = all

	return cmp
}
