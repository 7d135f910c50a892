package services

import (
	"fmt"
	"sync"
	"time"

	"fluxachat/config"
	"fluxachat/models"

	"github.com/sirupsen/logrus"
)

// fakeStore is an in-memory implementation of every store interface the
// services need.
type fakeStore struct {
	mu sync.Mutex

	rfqs       map[string]*models.RFQ
	quoteLines map[string][]models.QuoteLine
	headers    map[string]*models.ResponseHeader
	details    map[string][]models.ResponseDetail
	rejections []models.Rejection
	suppliers  map[string]*models.Supplier
	daLines    map[string]*models.PurchaseRequest
	daStatus   map[string]string
	offers     map[string][]models.Offre
	counts     map[string][3]int
	decisions  map[string]*models.Decision
	selections map[string]*models.Selection
	orders     map[string]*models.PurchaseOrder
	provenance map[int]provenance
	seq        map[string]int
	nextID     int

	saveRFQErr error
}

type provenance struct {
	rfqUUID  string
	enteteID int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rfqs:       make(map[string]*models.RFQ),
		quoteLines: make(map[string][]models.QuoteLine),
		headers:    make(map[string]*models.ResponseHeader),
		details:    make(map[string][]models.ResponseDetail),
		suppliers:  make(map[string]*models.Supplier),
		daLines:    make(map[string]*models.PurchaseRequest),
		daStatus:   make(map[string]string),
		offers:     make(map[string][]models.Offre),
		counts:     make(map[string][3]int),
		decisions:  make(map[string]*models.Decision),
		selections: make(map[string]*models.Selection),
		orders:     make(map[string]*models.PurchaseOrder),
		provenance: make(map[int]provenance),
		seq:        make(map[string]int),
		nextID:     1000,
	}
}

func pairKey(codeArticle, numeroDA string) string {
	return codeArticle + "|" + numeroDA
}

func (f *fakeStore) id() int {
	f.nextID++
	return f.nextID
}

// --- RFQStore ---

func (f *fakeStore) GetRFQByUUID(uuid string) (*models.RFQ, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rfq, ok := f.rfqs[uuid]
	if !ok {
		return nil, fmt.Errorf("RFQ %s not found", uuid)
	}
	cp := *rfq
	return &cp, nil
}

func (f *fakeStore) SaveRFQ(rfq *models.RFQ) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveRFQErr != nil {
		return f.saveRFQErr
	}
	cp := *rfq
	f.rfqs[rfq.UUID] = &cp
	return nil
}

func (f *fakeStore) ListOpenRFQs() ([]models.RFQ, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.RFQ
	for _, rfq := range f.rfqs {
		if !rfq.IsTerminal() {
			out = append(out, *rfq)
		}
	}
	return out, nil
}

// --- RFQIssueStore ---

func (f *fakeStore) NextRFQSequence(year int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fmt.Sprintf("rfq-%d", year)
	f.seq[key]++
	return f.seq[key], nil
}

func (f *fakeStore) CreateRFQ(rfq *models.RFQ) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range rfq.Lignes {
		rfq.Lignes[i].ID = f.id()
	}
	cp := *rfq
	f.rfqs[rfq.UUID] = &cp
	f.quoteLines[rfq.UUID] = append([]models.QuoteLine(nil), rfq.Lignes...)
	return nil
}

func (f *fakeStore) IncrementSupplierRFQCount(code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if sup, ok := f.suppliers[code]; ok {
		sup.NbTotalRFQ++
	}
	return nil
}

func (f *fakeStore) MarkDAInProgress(numeroDA string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.daStatus[numeroDA] == "" || f.daStatus[numeroDA] == models.DANew {
		f.daStatus[numeroDA] = models.DAInProgress
	}
	return nil
}

// --- IngestionStore ---

func (f *fakeStore) GetQuoteLines(rfqUUID string) ([]models.QuoteLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.QuoteLine(nil), f.quoteLines[rfqUUID]...), nil
}

func (f *fakeStore) ReplaceResponse(header *models.ResponseHeader, details []models.ResponseDetail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	header.ID = f.id()
	for i := range details {
		details[i].ID = f.id()
		details[i].ReponseEnteteID = header.ID
		f.provenance[details[i].ID] = provenance{rfqUUID: header.RFQUUID, enteteID: header.ID}
	}
	f.headers[header.RFQUUID] = header
	f.details[header.RFQUUID] = details
	return nil
}

func (f *fakeStore) SaveRejection(rej *models.Rejection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rej.ID = f.id()
	f.rejections = append(f.rejections, *rej)
	return nil
}

func (f *fakeStore) GetSupplier(code string) (*models.Supplier, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sup, ok := f.suppliers[code]
	if !ok {
		return nil, fmt.Errorf("supplier %s not found", code)
	}
	cp := *sup
	return &cp, nil
}

func (f *fakeStore) SaveSupplierMetrics(sup *models.Supplier) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cur, ok := f.suppliers[sup.CodeFournisseur]; ok {
		cur.NbReponses = sup.NbReponses
		cur.TauxReponse = sup.TauxReponse
		cur.DelaiMoyenReponseHeures = sup.DelaiMoyenReponseHeures
	}
	return nil
}

func (f *fakeStore) MarkDAQuotesReceived(numeroDA string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.daStatus[numeroDA] = models.DAQuotesReceived
	return nil
}

// --- ComparisonStore ---

func (f *fakeStore) GetOffers(numeroDA, codeArticle string) ([]models.Offre, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Offre(nil), f.offers[numeroDA+"|"+codeArticle]...), nil
}

func (f *fakeStore) CountRFQs(numeroDA, codeArticle string) (int, int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.counts[numeroDA+"|"+codeArticle]
	return c[0], c[1], c[2], nil
}

func (f *fakeStore) GetDecision(numeroDA, codeArticle string) (*models.Decision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	dec, ok := f.decisions[numeroDA+"|"+codeArticle]
	if !ok {
		return nil, nil
	}
	cp := *dec
	return &cp, nil
}

func (f *fakeStore) SaveDecision(d *models.Decision) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d.ID == 0 {
		d.ID = f.id()
	}
	cp := *d
	f.decisions[d.NumeroDA+"|"+d.CodeArticle] = &cp
	return nil
}

// --- SelectionStore ---

func (f *fakeStore) GetSelectionByPair(codeArticle, numeroDA string) (*models.Selection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sel, ok := f.selections[pairKey(codeArticle, numeroDA)]
	if !ok {
		return nil, nil
	}
	cp := *sel
	return &cp, nil
}

func (f *fakeStore) UpsertSelection(sel *models.Selection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if sel.ID == 0 {
		sel.ID = f.id()
	}
	cp := *sel
	f.selections[pairKey(sel.CodeArticle, sel.NumeroDA)] = &cp
	return nil
}

func (f *fakeStore) GetPurchaseRequestLine(numeroDA, codeArticle string) (*models.PurchaseRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pr, ok := f.daLines[numeroDA+"|"+codeArticle]
	if !ok {
		return nil, fmt.Errorf("DA line %s/%s not found", numeroDA, codeArticle)
	}
	cp := *pr
	return &cp, nil
}

func (f *fakeStore) ListPairsWithOffers() ([]ArticlePair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var pairs []ArticlePair
	for key := range f.offers {
		var numeroDA, codeArticle string
		for i := 0; i < len(key); i++ {
			if key[i] == '|' {
				numeroDA = key[:i]
				codeArticle = key[i+1:]
				break
			}
		}
		if _, selected := f.selections[pairKey(codeArticle, numeroDA)]; !selected {
			pairs = append(pairs, ArticlePair{CodeArticle: codeArticle, NumeroDA: numeroDA})
		}
	}
	return pairs, nil
}

// --- OrderStore ---

func (f *fakeStore) GetSelectionsByIDs(ids []int) ([]models.Selection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Selection
	for _, id := range ids {
		for _, sel := range f.selections {
			if sel.ID == id {
				out = append(out, *sel)
			}
		}
	}
	return out, nil
}

func (f *fakeStore) GetDetailProvenance(detailID int) (string, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.provenance[detailID]
	if !ok {
		return "", 0, fmt.Errorf("response detail %d not found", detailID)
	}
	return p.rfqUUID, p.enteteID, nil
}

func (f *fakeStore) NextOrderSequence(year int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fmt.Sprintf("bc-%d", year)
	f.seq[key]++
	return f.seq[key], nil
}

func (f *fakeStore) SaveOrder(po *models.PurchaseOrder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	po.ID = f.id()
	cp := *po
	f.orders[po.NumeroBC] = &cp
	return nil
}

func (f *fakeStore) GetOrderByNumero(numeroBC string) (*models.PurchaseOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	po, ok := f.orders[numeroBC]
	if !ok {
		return nil, fmt.Errorf("order %s not found", numeroBC)
	}
	cp := *po
	return &cp, nil
}

func (f *fakeStore) UpdateOrder(po *models.PurchaseOrder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *po
	f.orders[po.NumeroBC] = &cp
	return nil
}

func (f *fakeStore) MarkSelectionsOrdered(ids []int, numeroBC string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		for _, sel := range f.selections {
			if sel.ID == id {
				sel.Statut = models.SelectionBCGenerated
				sel.NumeroBC = numeroBC
			}
		}
	}
	return nil
}

func (f *fakeStore) DALinesWithoutOrder(numeroDA string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pending := 0
	for _, pr := range f.daLines {
		if pr.NumeroDA != numeroDA {
			continue
		}
		sel, ok := f.selections[pairKey(pr.CodeArticle, pr.NumeroDA)]
		if !ok || sel.Statut != models.SelectionBCGenerated {
			pending++
		}
	}
	return pending, nil
}

func (f *fakeStore) MarkDAOrderCreated(numeroDA string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.daStatus[numeroDA] = models.DAOrderCreated
	return nil
}

// --- collaborators ---

type auditEntry struct {
	Entite, Reference, Action, Acteur, Detail string
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (a *fakeAudit) Record(entite, reference, action, acteur, detail string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, auditEntry{entite, reference, action, acteur, detail})
}

func (a *fakeAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []string
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

type relanceCall struct {
	UUID       string
	NumRelance int
}

type fakeMailer struct {
	mu          sync.Mutex
	relances    []relanceCall
	invitations []string
}

func (m *fakeMailer) SendRelance(rfq *models.RFQ, numRelance int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relances = append(m.relances, relanceCall{UUID: rfq.UUID, NumRelance: numRelance})
}

func (m *fakeMailer) SendInvitation(rfq *models.RFQ) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invitations = append(m.invitations, rfq.UUID)
}

// testConfig builds a Provider backed by defaults only.
func testConfig() *config.Provider {
	return config.New()
}

// quietLogger discards log output in tests.
func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(discard{})
	return logger
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// fixedClock returns a clock pinned at t, mutable through the pointer.
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFixedClock(t time.Time) *fixedClock {
	return &fixedClock{t: t}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
