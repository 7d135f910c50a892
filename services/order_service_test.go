package services

import (
	"testing"
	"time"

	"fluxachat/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrders(store *fakeStore, clock *fixedClock) (*OrderService, *fakeAudit) {
	audit := &fakeAudit{}
	svc := NewOrderService(store, testConfig(), audit, quietLogger())
	svc.SetClock(clock.Now)
	return svc, audit
}

func seedSelection(store *fakeStore, id int, code, numeroDA, codeArticle string, qty, prix float64, devise string) {
	store.daLines[numeroDA+"|"+codeArticle] = &models.PurchaseRequest{
		NumeroDA:    numeroDA,
		CodeArticle: codeArticle,
		Quantite:    qty,
	}
	detailID := id * 100
	store.provenance[detailID] = provenance{rfqUUID: "rfq-" + code, enteteID: id * 10}
	store.selections[pairKey(codeArticle, numeroDA)] = &models.Selection{
		ID:              id,
		CodeArticle:     codeArticle,
		Designation:     "Article " + codeArticle,
		NumeroDA:        numeroDA,
		Quantite:        qty,
		Unite:           "pce",
		CodeFournisseur: code,
		DetailID:        detailID,
		PrixSelectionne: prix,
		Devise:          devise,
		Statut:          models.SelectionSelected,
	}
}

func seedOrderSupplier(store *fakeStore, code string, blacklisted bool) {
	store.suppliers[code] = &models.Supplier{
		CodeFournisseur: code,
		NomFournisseur:  "Fournisseur " + code,
		Email:           code + "@exemple.ma",
		Statut:          models.SupplierActive,
		Blacklist:       blacklisted,
	}
}

func TestGenerateOrdersSingleSupplierAcrossDAs(t *testing.T) {
	store := newFakeStore()
	clock := newFixedClock(time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC))
	svc, audit := newOrders(store, clock)
	seedOrderSupplier(store, "F001", false)
	seedSelection(store, 1, "F001", "DA-100", "ART-A", 10, 100, "MAD")
	seedSelection(store, 2, "F001", "DA-200", "ART-B", 5, 40, "MAD")

	res, err := svc.GenerateOrders(&models.GenerateOrdersRequest{
		SelectionIDs:  []int{1, 2},
		LieuLivraison: "Depot Casablanca",
	}, "acheteur@exemple.ma")
	require.NoError(t, err)
	require.Len(t, res.Commandes, 1)
	assert.Empty(t, res.Echecs)

	po := res.Commandes[0]
	assert.Equal(t, "BC-2026-0001", po.NumeroBC)
	assert.Equal(t, "F001", po.CodeFournisseur)
	assert.Equal(t, models.OrderDraft, po.Statut)
	assert.Equal(t, "MAD", po.Devise)
	require.Len(t, po.Lignes, 2)

	// Totals recomputed from the lines: 10*100 + 5*40 = 1200 HT.
	assert.Equal(t, 1200.0, po.MontantTotalHT)
	assert.Equal(t, 240.0, po.MontantTVA)
	assert.Equal(t, 1440.0, po.MontantTotalTTC)

	// Provenance carried on each line.
	assert.Equal(t, "rfq-F001", po.Lignes[0].RFQUUID)
	assert.Equal(t, 10, po.Lignes[0].ReponseEnteteID)
	assert.Equal(t, 1, po.Lignes[0].SelectionID)

	// Selections locked, fully covered DAs closed.
	assert.Equal(t, models.SelectionBCGenerated, store.selections[pairKey("ART-A", "DA-100")].Statut)
	assert.Equal(t, "BC-2026-0001", store.selections[pairKey("ART-A", "DA-100")].NumeroBC)
	assert.Equal(t, models.DAOrderCreated, store.daStatus["DA-100"])
	assert.Equal(t, models.DAOrderCreated, store.daStatus["DA-200"])
	assert.Contains(t, audit.actions(), "bc_genere")
}

func TestGenerateOrdersPartitionsBySupplier(t *testing.T) {
	store := newFakeStore()
	clock := newFixedClock(time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC))
	svc, _ := newOrders(store, clock)
	seedOrderSupplier(store, "F001", false)
	seedOrderSupplier(store, "F002", false)
	seedSelection(store, 1, "F001", "DA-100", "ART-A", 10, 100, "MAD")
	seedSelection(store, 2, "F002", "DA-100", "ART-B", 5, 40, "MAD")

	res, err := svc.GenerateOrders(&models.GenerateOrdersRequest{SelectionIDs: []int{1, 2}}, "acheteur@exemple.ma")
	require.NoError(t, err)
	require.Len(t, res.Commandes, 2)

	assert.Equal(t, "BC-2026-0001", res.Commandes[0].NumeroBC)
	assert.Equal(t, "F001", res.Commandes[0].CodeFournisseur)
	assert.Equal(t, "BC-2026-0002", res.Commandes[1].NumeroBC)
	assert.Equal(t, "F002", res.Commandes[1].CodeFournisseur)
}

func TestGenerateOrdersEmptySelection(t *testing.T) {
	store := newFakeStore()
	svc, _ := newOrders(store, newFixedClock(time.Now()))

	_, err := svc.GenerateOrders(&models.GenerateOrdersRequest{}, "acheteur@exemple.ma")
	assert.True(t, IsKind(err, KindOrderGenerationAborted))
}

func TestGenerateOrdersUnknownSelectionID(t *testing.T) {
	store := newFakeStore()
	svc, _ := newOrders(store, newFixedClock(time.Now()))
	seedOrderSupplier(store, "F001", false)
	seedSelection(store, 1, "F001", "DA-100", "ART-A", 10, 100, "MAD")

	_, err := svc.GenerateOrders(&models.GenerateOrdersRequest{SelectionIDs: []int{1, 999}}, "acheteur@exemple.ma")
	assert.True(t, IsKind(err, KindOrderGenerationAborted))
	// Nothing partially generated.
	assert.Empty(t, store.orders)
	assert.Equal(t, models.SelectionSelected, store.selections[pairKey("ART-A", "DA-100")].Statut)
}

func TestGenerateOrdersFailedPartitionDoesNotVoidOthers(t *testing.T) {
	store := newFakeStore()
	clock := newFixedClock(time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC))
	svc, _ := newOrders(store, clock)
	seedOrderSupplier(store, "F001", false)
	seedOrderSupplier(store, "F002", true)
	seedSelection(store, 1, "F001", "DA-100", "ART-A", 10, 100, "MAD")
	seedSelection(store, 2, "F002", "DA-100", "ART-B", 5, 40, "MAD")

	res, err := svc.GenerateOrders(&models.GenerateOrdersRequest{SelectionIDs: []int{1, 2}}, "acheteur@exemple.ma")
	require.NoError(t, err)
	require.Len(t, res.Commandes, 1)
	assert.Equal(t, "F001", res.Commandes[0].CodeFournisseur)

	require.Len(t, res.Echecs, 1)
	assert.Equal(t, "F002", res.Echecs[0].CodeFournisseur)
	assert.Equal(t, KindBlacklistedSupplier, res.Echecs[0].Erreur.Kind)

	// The failed partition's selection stays consumable.
	assert.Equal(t, models.SelectionSelected, store.selections[pairKey("ART-B", "DA-100")].Statut)
}

func TestGenerateOrdersInvalidQuantityAbortsPartition(t *testing.T) {
	store := newFakeStore()
	clock := newFixedClock(time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC))
	svc, _ := newOrders(store, clock)
	seedOrderSupplier(store, "F001", false)
	seedSelection(store, 1, "F001", "DA-100", "ART-A", 10, 100, "MAD")
	seedSelection(store, 2, "F001", "DA-100", "ART-B", 0, 40, "MAD")

	res, err := svc.GenerateOrders(&models.GenerateOrdersRequest{SelectionIDs: []int{1, 2}}, "acheteur@exemple.ma")
	require.NoError(t, err)

	// All or nothing: the valid line of the partition is not ordered either.
	assert.Empty(t, res.Commandes)
	require.Len(t, res.Echecs, 1)
	assert.Equal(t, KindInvalidQuantity, res.Echecs[0].Erreur.Kind)
	assert.Empty(t, store.orders)
	assert.Equal(t, models.SelectionSelected, store.selections[pairKey("ART-A", "DA-100")].Statut)
}

func TestGenerateOrdersMixedCurrenciesAbort(t *testing.T) {
	store := newFakeStore()
	clock := newFixedClock(time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC))
	svc, _ := newOrders(store, clock)
	seedOrderSupplier(store, "F001", false)
	seedSelection(store, 1, "F001", "DA-100", "ART-A", 10, 100, "MAD")
	seedSelection(store, 2, "F001", "DA-100", "ART-B", 5, 40, "EUR")

	res, err := svc.GenerateOrders(&models.GenerateOrdersRequest{SelectionIDs: []int{1, 2}}, "acheteur@exemple.ma")
	require.NoError(t, err)
	assert.Empty(t, res.Commandes)
	require.Len(t, res.Echecs, 1)
	assert.Equal(t, KindOrderGenerationAborted, res.Echecs[0].Erreur.Kind)
}

func TestGenerateOrdersMissingCurrencyDefaults(t *testing.T) {
	store := newFakeStore()
	clock := newFixedClock(time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC))
	svc, _ := newOrders(store, clock)
	seedOrderSupplier(store, "F001", false)
	seedSelection(store, 1, "F001", "DA-100", "ART-A", 10, 100, "")

	res, err := svc.GenerateOrders(&models.GenerateOrdersRequest{SelectionIDs: []int{1}}, "acheteur@exemple.ma")
	require.NoError(t, err)
	require.Len(t, res.Commandes, 1)
	assert.Equal(t, "MAD", res.Commandes[0].Devise)
}

func TestGenerateOrdersAlreadyOrderedSelection(t *testing.T) {
	store := newFakeStore()
	clock := newFixedClock(time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC))
	svc, _ := newOrders(store, clock)
	seedOrderSupplier(store, "F001", false)
	seedSelection(store, 1, "F001", "DA-100", "ART-A", 10, 100, "MAD")

	_, err := svc.GenerateOrders(&models.GenerateOrdersRequest{SelectionIDs: []int{1}}, "acheteur@exemple.ma")
	require.NoError(t, err)

	res, err := svc.GenerateOrders(&models.GenerateOrdersRequest{SelectionIDs: []int{1}}, "acheteur@exemple.ma")
	require.NoError(t, err)
	assert.Empty(t, res.Commandes)
	require.Len(t, res.Echecs, 1)
	assert.Equal(t, KindSelectionLocked, res.Echecs[0].Erreur.Kind)
}

func TestGenerateOrdersPartiallyCoveredDAStaysOpen(t *testing.T) {
	store := newFakeStore()
	clock := newFixedClock(time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC))
	svc, _ := newOrders(store, clock)
	seedOrderSupplier(store, "F001", false)
	seedSelection(store, 1, "F001", "DA-100", "ART-A", 10, 100, "MAD")
	seedSelection(store, 2, "F001", "DA-100", "ART-B", 5, 40, "MAD")

	res, err := svc.GenerateOrders(&models.GenerateOrdersRequest{SelectionIDs: []int{1}}, "acheteur@exemple.ma")
	require.NoError(t, err)
	require.Len(t, res.Commandes, 1)

	// ART-B of DA-100 is still unordered.
	assert.NotEqual(t, models.DAOrderCreated, store.daStatus["DA-100"])
}

func TestValidateOrder(t *testing.T) {
	store := newFakeStore()
	clock := newFixedClock(time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC))
	svc, audit := newOrders(store, clock)
	store.orders["BC-2026-0001"] = &models.PurchaseOrder{
		NumeroBC: "BC-2026-0001",
		Statut:   models.OrderDraft,
	}

	po, err := svc.ValidateOrder("BC-2026-0001", "chef@exemple.ma")
	require.NoError(t, err)
	assert.Equal(t, models.OrderValidated, po.Statut)
	assert.Equal(t, "chef@exemple.ma", po.ValideePar)
	require.NotNil(t, po.DateValidation)
	assert.Contains(t, audit.actions(), "validee")

	_, err = svc.ValidateOrder("BC-2026-0001", "chef@exemple.ma")
	assert.True(t, IsKind(err, KindInvalidTransition))
}

func TestRecomputeTotals(t *testing.T) {
	po := &models.PurchaseOrder{
		MontantTotalHT: 999, // stale value must be discarded
		Lignes: []models.OrderLine{
			{MontantLigneHT: 100, MontantLigneTVA: 20, MontantLigneTTC: 120},
			{MontantLigneHT: 50, MontantLigneTVA: 10, MontantLigneTTC: 60},
		},
	}
	RecomputeTotals(po)
	assert.Equal(t, 150.0, po.MontantTotalHT)
	assert.Equal(t, 30.0, po.MontantTVA)
	assert.Equal(t, 180.0, po.MontantTotalTTC)
}
