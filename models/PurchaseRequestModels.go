package models

import "time"

// Purchase request (DA) statuses. A DA row is one requested article line;
// rows sharing a numero_da form one purchase request.
const (
	DANew            = "nouveau"
	DAInProgress     = "en_cours"
	DAQuotesReceived = "cotations_recues"
	DAOrderCreated   = "commande_creee"
	DACancelled      = "annule"
)

// DA priorities, fed by the upstream ERP.
const (
	PriorityLow    = "basse"
	PriorityNormal = "normale"
	PriorityHigh   = "haute"
	PriorityUrgent = "urgente"
)

// PurchaseRequest is one article line of a demande d'achat. The status moves
// forward only as a downstream effect of the RFQ/selection/order flow.
type PurchaseRequest struct {
	ID                 int        `json:"id" db:"id"`
	NumeroDA           string     `json:"numero_da" db:"numero_da"`
	CodeArticle        string     `json:"code_article" db:"code_article"`
	DesignationArticle string     `json:"designation_article" db:"designation_article"`
	Quantite           float64    `json:"quantite" db:"quantite"`
	Unite              string     `json:"unite" db:"unite"`
	MarqueSouhaitee    string     `json:"marque_souhaitee" db:"marque_souhaitee"`
	DateCreationDA     time.Time  `json:"date_creation_da" db:"date_creation_da"`
	DateBesoin         *time.Time `json:"date_besoin" db:"date_besoin"`
	Statut             string     `json:"statut" db:"statut"`
	Priorite           string     `json:"priorite" db:"priorite"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}
