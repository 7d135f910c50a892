package services

import (
	"testing"
	"time"

	"fluxachat/config"
	"fluxachat/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newComparison(store *fakeStore) (*ComparisonService, *fakeAudit) {
	audit := &fakeAudit{}
	return NewComparisonService(store, testConfig(), audit), audit
}

func defaultWeights() config.Weights {
	return config.Weights{Price: 0.40, Delay: 0.35, Conformity: 0.25}
}

func offer(detailID int, code string, prix float64, delai int, conforme bool) models.Offre {
	return models.Offre{
		DetailID:        detailID,
		CodeFournisseur: code,
		NomFournisseur:  "Fournisseur " + code,
		PrixUnitaireHT:  prix,
		DelaiLivraison:  delai,
		MarqueConforme:  conforme,
		Devise:          "MAD",
	}
}

// Two competing offers: the cheaper non-conforming one loses to the
// conforming one with the shorter lead time.
func TestCompareTwoOffers(t *testing.T) {
	offers := []models.Offre{
		offer(1, "X", 100, 10, true),
		offer(2, "Y", 90, 15, false),
	}
	cmp := Compare("DA-100", "ART-A", offers, defaultWeights())

	assert.Equal(t, 90.0, cmp.PrixMin)
	assert.Equal(t, 100.0, cmp.PrixMax)
	assert.Equal(t, 95.0, cmp.PrixMoyen)
	assert.InDelta(t, 11.11, cmp.EcartPrixPourcent, 0.01)

	assert.Equal(t, "Y", cmp.MeilleurPrixFournisseur)
	assert.Equal(t, 90.0, cmp.MeilleurPrix)
	assert.Equal(t, "X", cmp.MeilleurDelaiFournisseur)
	assert.Equal(t, 10, cmp.MeilleurDelaiJours)

	// X: 0.40*0 + 0.35*1 + 0.25 = 0.60; Y: 0.40*1 + 0.35*0 + 0 = 0.40.
	assert.Equal(t, "X", cmp.FournisseurRecommande)
	assert.InDelta(t, 0.60, cmp.ScoreRecommandation, 1e-9)

	require.Len(t, cmp.Offres, 2)
	// Sorted by price ascending.
	assert.Equal(t, "Y", cmp.Offres[0].CodeFournisseur)
	assert.InDelta(t, 0.40, cmp.Offres[0].Score, 1e-9)
	assert.InDelta(t, 0.60, cmp.Offres[1].Score, 1e-9)
}

func TestCompareSingleOfferScoresFull(t *testing.T) {
	cmp := Compare("DA-100", "ART-A", []models.Offre{offer(1, "X", 100, 10, true)}, defaultWeights())

	// Degenerate ranges normalize to 1.0.
	assert.Equal(t, "X", cmp.FournisseurRecommande)
	assert.InDelta(t, 1.0, cmp.ScoreRecommandation, 1e-9)
	assert.Equal(t, 100.0, cmp.PrixMin)
	assert.Equal(t, 100.0, cmp.PrixMax)
	assert.Equal(t, 0.0, cmp.EcartPrixPourcent)
}

func TestCompareBlacklistedSupplierExcluded(t *testing.T) {
	black := offer(3, "Z", 50, 5, true)
	black.Blacklist = true
	offers := []models.Offre{
		offer(1, "X", 100, 10, true),
		offer(2, "Y", 90, 15, false),
		black,
	}
	cmp := Compare("DA-100", "ART-A", offers, defaultWeights())

	// Z is cheapest and fastest yet invisible to stats and recommendation.
	assert.Equal(t, 90.0, cmp.PrixMin)
	assert.Equal(t, "Y", cmp.MeilleurPrixFournisseur)
	assert.Equal(t, "X", cmp.MeilleurDelaiFournisseur)
	assert.Equal(t, "X", cmp.FournisseurRecommande)

	// But it stays visible in the offer list.
	require.Len(t, cmp.Offres, 3)
	assert.Equal(t, "Z", cmp.Offres[0].CodeFournisseur)
	assert.Equal(t, 0.0, cmp.Offres[0].Score)
}

func TestCompareTieBreaksBySupplierCode(t *testing.T) {
	offers := []models.Offre{
		offer(1, "B", 100, 10, true),
		offer(2, "A", 100, 10, true),
	}
	cmp := Compare("DA-100", "ART-A", offers, defaultWeights())

	assert.Equal(t, "A", cmp.FournisseurRecommande)
	assert.Equal(t, "A", cmp.MeilleurPrixFournisseur)
	assert.Equal(t, "A", cmp.MeilleurDelaiFournisseur)
}

func TestCompareIsDeterministic(t *testing.T) {
	offers := []models.Offre{
		offer(1, "X", 100, 10, true),
		offer(2, "Y", 90, 15, false),
		offer(3, "W", 95, 12, true),
	}
	first := Compare("DA-100", "ART-A", offers, defaultWeights())
	reversed := []models.Offre{offers[2], offers[1], offers[0]}
	second := Compare("DA-100", "ART-A", reversed, defaultWeights())

	assert.Equal(t, first.FournisseurRecommande, second.FournisseurRecommande)
	assert.InDelta(t, first.ScoreRecommandation, second.ScoreRecommandation, 1e-9)
	require.Equal(t, len(first.Offres), len(second.Offres))
	for i := range first.Offres {
		assert.Equal(t, first.Offres[i].CodeFournisseur, second.Offres[i].CodeFournisseur)
	}
}

func TestCompareNoOffers(t *testing.T) {
	cmp := Compare("DA-100", "ART-A", nil, defaultWeights())

	assert.Empty(t, cmp.FournisseurRecommande)
	assert.Equal(t, models.DecisionPending, cmp.StatutDecision)
	assert.Empty(t, cmp.Offres)
}

func TestGetComparisonJoinsCounters(t *testing.T) {
	store := newFakeStore()
	store.offers["DA-100|ART-A"] = []models.Offre{
		offer(1, "X", 100, 10, true),
		offer(2, "Y", 90, 15, false),
	}
	store.counts["DA-100|ART-A"] = [3]int{3, 2, 1}

	svc, _ := newComparison(store)
	cmp, err := svc.GetComparison("DA-100", "ART-A")
	require.NoError(t, err)

	assert.Equal(t, 3, cmp.NbRFQEnvoyees)
	assert.Equal(t, 2, cmp.NbReponses)
	assert.Equal(t, 1, cmp.NbRejets)
	assert.Equal(t, "X", cmp.FournisseurRecommande)
	assert.Equal(t, models.DecisionPending, cmp.StatutDecision)
}

func TestDecideComparisonValidates(t *testing.T) {
	store := newFakeStore()
	store.offers["DA-100|ART-A"] = []models.Offre{offer(1, "X", 100, 10, true)}
	svc, audit := newComparison(store)
	clock := newFixedClock(time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC))
	svc.SetClock(clock.Now)

	dec, err := svc.Decide("DA-100", "ART-A", models.DecisionValidated, "prix conforme au marche", "acheteur@exemple.ma")
	require.NoError(t, err)
	assert.NotZero(t, dec.ID)
	assert.Equal(t, models.DecisionValidated, dec.Statut)
	assert.Equal(t, "acheteur@exemple.ma", dec.ValidePar)
	assert.Equal(t, clock.Now(), dec.DateValidation)
	assert.Contains(t, audit.actions(), "decision_validee")

	// The verdict shows through on the assembled comparison.
	cmp, err := svc.GetComparison("DA-100", "ART-A")
	require.NoError(t, err)
	assert.Equal(t, models.DecisionValidated, cmp.StatutDecision)
	assert.Equal(t, "acheteur@exemple.ma", cmp.ValidePar)
	require.NotNil(t, cmp.DateValidation)
	assert.Equal(t, clock.Now(), *cmp.DateValidation)
}

func TestDecideComparisonRejects(t *testing.T) {
	store := newFakeStore()
	store.offers["DA-100|ART-A"] = []models.Offre{offer(1, "X", 100, 10, true)}
	svc, audit := newComparison(store)

	dec, err := svc.Decide("DA-100", "ART-A", models.DecisionRejected, "prix trop eleves", "acheteur@exemple.ma")
	require.NoError(t, err)
	assert.Equal(t, models.DecisionRejected, dec.Statut)
	assert.Equal(t, "prix trop eleves", dec.Commentaire)
	assert.Contains(t, audit.actions(), "decision_rejetee")
}

func TestDecideComparisonTwiceFails(t *testing.T) {
	store := newFakeStore()
	store.offers["DA-100|ART-A"] = []models.Offre{offer(1, "X", 100, 10, true)}
	svc, _ := newComparison(store)

	_, err := svc.Decide("DA-100", "ART-A", models.DecisionValidated, "", "acheteur@exemple.ma")
	require.NoError(t, err)

	_, err = svc.Decide("DA-100", "ART-A", models.DecisionRejected, "", "acheteur@exemple.ma")
	assert.True(t, IsKind(err, KindInvalidTransition))

	// The first verdict stands.
	dec, err := store.GetDecision("DA-100", "ART-A")
	require.NoError(t, err)
	assert.Equal(t, models.DecisionValidated, dec.Statut)
}

func TestDecideComparisonInvalidStatus(t *testing.T) {
	store := newFakeStore()
	store.offers["DA-100|ART-A"] = []models.Offre{offer(1, "X", 100, 10, true)}
	svc, _ := newComparison(store)

	_, err := svc.Decide("DA-100", "ART-A", "peut_etre", "", "acheteur@exemple.ma")
	assert.True(t, IsKind(err, KindInvalidTransition))
	assert.Empty(t, store.decisions)
}

func TestDecideComparisonWithoutOffers(t *testing.T) {
	svc, _ := newComparison(newFakeStore())

	_, err := svc.Decide("DA-100", "ART-A", models.DecisionValidated, "", "acheteur@exemple.ma")
	assert.True(t, IsKind(err, KindInvalidTransition))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, 1.0, normalize(90, 90, 100))
	assert.Equal(t, 0.0, normalize(100, 90, 100))
	assert.Equal(t, 0.5, normalize(95, 90, 100))
	assert.Equal(t, 1.0, normalize(42, 42, 42))
}
