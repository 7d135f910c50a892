package services

import (
	"testing"
	"time"

	"fluxachat/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIngestion(store *fakeStore, clock *fixedClock) (*IngestionService, *fakeAudit) {
	audit := &fakeAudit{}
	lifecycle := NewLifecycleService(store, testConfig(), audit, &fakeMailer{}, quietLogger())
	lifecycle.SetClock(clock.Now)
	return NewIngestionService(store, lifecycle, audit), audit
}

func seedAnswerableRFQ(store *fakeStore, clock *fixedClock) {
	sent := clock.Now().Add(-48 * time.Hour)
	rfq := seedRFQ(store, "u1", models.RFQViewed, sent)
	rfq.NumeroRFQ = "RFQ-2026-0042"
	store.quoteLines["u1"] = []models.QuoteLine{
		{ID: 1, RFQUUID: "u1", NumeroDA: "DA-100", CodeArticle: "ART-A", QuantiteDemandee: 10, Unite: "pce"},
		{ID: 2, RFQUUID: "u1", NumeroDA: "DA-100", CodeArticle: "ART-B", QuantiteDemandee: 5, Unite: "pce"},
	}
	store.suppliers["F001"] = &models.Supplier{
		CodeFournisseur:         "F001",
		NomFournisseur:          "Aciers du Nord",
		Statut:                  models.SupplierActive,
		NbTotalRFQ:              4,
		NbReponses:              1,
		DelaiMoyenReponseHeures: 10,
	}
}

func validResponse() *models.RecordResponseRequest {
	return &models.RecordResponseRequest{
		Entete: models.ResponseHeaderRequest{Devise: "MAD", ConditionsPaiement: "30 jours"},
		Lignes: []models.ResponseLineRequest{
			{LigneCotationID: 1, PrixUnitaireHT: 100, QuantiteDisponible: 10, MarqueConforme: true, DelaiLivraison: 10},
			{LigneCotationID: 2, PrixUnitaireHT: 40, QuantiteDisponible: 5, DelaiLivraison: 7},
		},
	}
}

func TestRecordResponseHappyPath(t *testing.T) {
	store := newFakeStore()
	clock := newFixedClock(time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC))
	svc, audit := newIngestion(store, clock)
	seedAnswerableRFQ(store, clock)

	header, err := svc.RecordResponse("u1", validResponse(), "10.0.0.5")
	require.NoError(t, err)
	require.NotNil(t, header)
	assert.NotZero(t, header.ID)

	rfq := store.rfqs["u1"]
	assert.Equal(t, models.RFQAnswered, rfq.Statut)
	require.NotNil(t, rfq.DateReponse)
	assert.Equal(t, clock.Now(), *rfq.DateReponse)
	assert.Equal(t, "10.0.0.5", rfq.IPReponse)

	details := store.details["u1"]
	require.Len(t, details, 2)
	assert.Equal(t, "ART-A", details[0].CodeArticle)
	assert.Equal(t, 100.0, details[0].PrixUnitaireHT)

	assert.Equal(t, models.DAQuotesReceived, store.daStatus["DA-100"])
	assert.Contains(t, audit.actions(), "repondu")
}

func TestRecordResponseUpdatesSupplierMetrics(t *testing.T) {
	store := newFakeStore()
	clock := newFixedClock(time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC))
	svc, _ := newIngestion(store, clock)
	seedAnswerableRFQ(store, clock)

	_, err := svc.RecordResponse("u1", validResponse(), "10.0.0.5")
	require.NoError(t, err)

	sup := store.suppliers["F001"]
	assert.Equal(t, 2, sup.NbReponses)
	assert.Equal(t, 50.0, sup.TauxReponse)
	// Rolling average: (10*1 + 48) / 2.
	assert.Equal(t, 29, sup.DelaiMoyenReponseHeures)
}

// recomputeSupplierMetrics derives the counters from scratch out of the
// stored replies and rejections, the way a batch job would. The incremental
// updates must land on the same values.
func recomputeSupplierMetrics(store *fakeStore, code string) (nb int, taux float64, delai int) {
	store.mu.Lock()
	defer store.mu.Unlock()
	total, hours := 0, 0
	for uuid, rfq := range store.rfqs {
		if rfq.CodeFournisseur != code {
			continue
		}
		total++
		if h, ok := store.headers[uuid]; ok {
			nb++
			hours += int(h.DateReponse.Sub(rfq.DateEnvoi).Hours())
		}
	}
	for _, rej := range store.rejections {
		rfq, ok := store.rfqs[rej.RFQUUID]
		if !ok || rfq.CodeFournisseur != code {
			continue
		}
		nb++
		hours += int(rej.DateRejet.Sub(rfq.DateEnvoi).Hours())
	}
	if total > 0 {
		taux = float64(nb) / float64(total) * 100
	}
	if nb > 0 {
		delai = hours / nb
	}
	return nb, taux, delai
}

func TestSupplierMetricsMatchEventRecompute(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)
	clock := newFixedClock(now)
	svc, _ := newIngestion(store, clock)
	store.suppliers["F001"] = &models.Supplier{
		CodeFournisseur: "F001",
		Statut:          models.SupplierActive,
		NbTotalRFQ:      4,
	}

	ages := []int{24, 48, 72, 96}
	for i, uuid := range []string{"u1", "u2", "u3", "u4"} {
		seedRFQ(store, uuid, models.RFQViewed, now.Add(-time.Duration(ages[i])*time.Hour))
		store.quoteLines[uuid] = []models.QuoteLine{
			{ID: i + 1, RFQUUID: uuid, NumeroDA: "DA-100", CodeArticle: "ART-A", QuantiteDemandee: 1},
		}
	}

	respond := func(uuid string, ligne int, prix float64) {
		req := &models.RecordResponseRequest{
			Lignes: []models.ResponseLineRequest{
				{LigneCotationID: ligne, PrixUnitaireHT: prix, QuantiteDisponible: 1, DelaiLivraison: 5},
			},
		}
		_, err := svc.RecordResponse(uuid, req, "10.0.0.5")
		require.NoError(t, err)
	}

	respond("u1", 1, 100)
	respond("u2", 2, 110)
	require.NoError(t, svc.RecordRejection("u3", "hors gamme", "email", "10.0.0.5"))
	// u4 never answers, and a resubmission must not count twice.
	respond("u1", 1, 95)

	sup := store.suppliers["F001"]
	nb, taux, delai := recomputeSupplierMetrics(store, "F001")
	assert.Equal(t, nb, sup.NbReponses)
	assert.Equal(t, taux, sup.TauxReponse)
	assert.Equal(t, delai, sup.DelaiMoyenReponseHeures)

	// Two responses plus one rejection over four consultations.
	assert.Equal(t, 3, sup.NbReponses)
	assert.Equal(t, 75.0, sup.TauxReponse)
	// (24 + 48 + 72) / 3.
	assert.Equal(t, 48, sup.DelaiMoyenReponseHeures)
}

func TestRecordResponseUnknownQuoteLine(t *testing.T) {
	store := newFakeStore()
	clock := newFixedClock(time.Now())
	svc, _ := newIngestion(store, clock)
	seedAnswerableRFQ(store, clock)

	req := validResponse()
	req.Lignes[1].LigneCotationID = 999

	_, err := svc.RecordResponse("u1", req, "10.0.0.5")
	assert.True(t, IsKind(err, KindUnknownQuoteLine))
	assert.Equal(t, models.RFQViewed, store.rfqs["u1"].Statut, "failed response must not advance the RFQ")
	assert.Empty(t, store.details["u1"])
}

func TestRecordResponseNegativePrice(t *testing.T) {
	store := newFakeStore()
	clock := newFixedClock(time.Now())
	svc, _ := newIngestion(store, clock)
	seedAnswerableRFQ(store, clock)

	req := validResponse()
	req.Lignes[0].PrixUnitaireHT = -1

	_, err := svc.RecordResponse("u1", req, "10.0.0.5")
	assert.True(t, IsKind(err, KindInvalidPrice))
}

func TestRecordResponseZeroPriceIsAccepted(t *testing.T) {
	store := newFakeStore()
	clock := newFixedClock(time.Now())
	svc, _ := newIngestion(store, clock)
	seedAnswerableRFQ(store, clock)

	req := validResponse()
	req.Lignes[0].PrixUnitaireHT = 0

	_, err := svc.RecordResponse("u1", req, "10.0.0.5")
	assert.NoError(t, err)
}

func TestRecordResponseAfterExpiry(t *testing.T) {
	store := newFakeStore()
	clock := newFixedClock(time.Now())
	svc, _ := newIngestion(store, clock)
	seedAnswerableRFQ(store, clock)
	store.rfqs["u1"].Statut = models.RFQExpired

	_, err := svc.RecordResponse("u1", validResponse(), "10.0.0.5")
	assert.True(t, IsKind(err, KindLateResponse))
}

func TestRecordResponseUnknownRFQ(t *testing.T) {
	store := newFakeStore()
	svc, _ := newIngestion(store, newFixedClock(time.Now()))

	_, err := svc.RecordResponse("missing", validResponse(), "10.0.0.5")
	assert.True(t, IsKind(err, KindUnknownRFQ))
}

func TestRecordResponseDuringRelanceSucceeds(t *testing.T) {
	store := newFakeStore()
	clock := newFixedClock(time.Now())
	svc, _ := newIngestion(store, clock)
	seedAnswerableRFQ(store, clock)
	store.rfqs["u1"].Statut = models.RFQRelance2
	store.rfqs["u1"].NbRelances = 2

	_, err := svc.RecordResponse("u1", validResponse(), "10.0.0.5")
	require.NoError(t, err)
	assert.Equal(t, models.RFQAnswered, store.rfqs["u1"].Statut)
}

func TestRecordResponseResubmissionSupersedes(t *testing.T) {
	store := newFakeStore()
	clock := newFixedClock(time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC))
	svc, audit := newIngestion(store, clock)
	seedAnswerableRFQ(store, clock)

	_, err := svc.RecordResponse("u1", validResponse(), "10.0.0.5")
	require.NoError(t, err)
	firstCount := store.suppliers["F001"].NbReponses

	clock.Advance(3 * time.Hour)
	revised := validResponse()
	revised.Lignes[0].PrixUnitaireHT = 95

	header, err := svc.RecordResponse("u1", revised, "10.0.0.6")
	require.NoError(t, err)
	require.NotNil(t, header)

	// One active response, the latest one.
	details := store.details["u1"]
	require.Len(t, details, 2)
	assert.Equal(t, 95.0, details[0].PrixUnitaireHT)

	rfq := store.rfqs["u1"]
	assert.Equal(t, models.RFQAnswered, rfq.Statut)
	assert.Equal(t, clock.Now(), *rfq.DateReponse)

	// Counters settle on first submission only.
	assert.Equal(t, firstCount, store.suppliers["F001"].NbReponses)
	assert.Contains(t, audit.actions(), "reponse_remplacee")
}

func TestRecordRejection(t *testing.T) {
	store := newFakeStore()
	clock := newFixedClock(time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC))
	svc, audit := newIngestion(store, clock)
	seedAnswerableRFQ(store, clock)

	require.NoError(t, svc.RecordRejection("u1", "article obsolete", "", "10.0.0.5"))

	assert.Equal(t, models.RFQRejected, store.rfqs["u1"].Statut)
	require.Len(t, store.rejections, 1)
	assert.Equal(t, "article obsolete", store.rejections[0].Motif)
	assert.Equal(t, models.RejectChannelWebform, store.rejections[0].Canal, "empty canal defaults to webform")
	assert.Contains(t, audit.actions(), "rejete")

	// A rejection is an answer for the metrics.
	assert.Equal(t, 2, store.suppliers["F001"].NbReponses)
}

func TestRecordRejectionAfterResponseFails(t *testing.T) {
	store := newFakeStore()
	clock := newFixedClock(time.Now())
	svc, _ := newIngestion(store, clock)
	seedAnswerableRFQ(store, clock)

	_, err := svc.RecordResponse("u1", validResponse(), "10.0.0.5")
	require.NoError(t, err)

	err = svc.RecordRejection("u1", "trop tard", "email", "10.0.0.5")
	assert.True(t, IsKind(err, KindInvalidTransition))
}

func TestRecordRejectionAfterExpiry(t *testing.T) {
	store := newFakeStore()
	clock := newFixedClock(time.Now())
	svc, _ := newIngestion(store, clock)
	seedAnswerableRFQ(store, clock)
	store.rfqs["u1"].Statut = models.RFQExpired

	err := svc.RecordRejection("u1", "delai depasse", "email", "10.0.0.5")
	assert.True(t, IsKind(err, KindLateResponse))
}
