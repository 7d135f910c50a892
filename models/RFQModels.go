package models

import "time"

// RFQ lifecycle statuses. relance_1..3 are still receivable: a supplier may
// answer an RFQ that has already been chased.
const (
	RFQSent     = "envoye"
	RFQViewed   = "vu"
	RFQAnswered = "repondu"
	RFQRejected = "rejete"
	RFQExpired  = "expire"
	RFQRelance1 = "relance_1"
	RFQRelance2 = "relance_2"
	RFQRelance3 = "relance_3"
)

// RFQ is one demande de cotation sent to one supplier for a batch of article
// lines. The UUID is the public identifier used in the supplier-facing link
// and in the tracking pixel; the numero is the human-readable reference.
type RFQ struct {
	ID                  int         `json:"id" db:"id"`
	UUID                string      `json:"uuid" db:"uuid"`
	NumeroRFQ           string      `json:"numero_rfq" db:"numero_rfq"`
	CodeFournisseur     string      `json:"code_fournisseur" db:"code_fournisseur"`
	DateEnvoi           time.Time   `json:"date_envoi" db:"date_envoi"`
	DateLimiteReponse   *time.Time  `json:"date_limite_reponse" db:"date_limite_reponse"`
	Statut              string      `json:"statut" db:"statut"`
	NbRelances          int         `json:"nb_relances" db:"nb_relances"`
	DateDerniereRelance *time.Time  `json:"date_derniere_relance" db:"date_derniere_relance"`
	DateOuvertureEmail  *time.Time  `json:"date_ouverture_email" db:"date_ouverture_email"`
	DateClicFormulaire  *time.Time  `json:"date_clic_formulaire" db:"date_clic_formulaire"`
	DateReponse         *time.Time  `json:"date_reponse" db:"date_reponse"`
	IPOuverture         string      `json:"ip_ouverture" db:"ip_ouverture"`
	IPReponse           string      `json:"ip_reponse" db:"ip_reponse"`
	CreatedAt           time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at" db:"updated_at"`
	Lignes              []QuoteLine `json:"lignes,omitempty" db:"-"`

	// Joined for display only.
	NomFournisseur   string `json:"nom_fournisseur,omitempty" db:"-"`
	EmailFournisseur string `json:"email_fournisseur,omitempty" db:"-"`
}

// IsTerminal reports whether the RFQ can no longer change state.
func (r *RFQ) IsTerminal() bool {
	switch r.Statut {
	case RFQAnswered, RFQRejected, RFQExpired:
		return true
	}
	return false
}

// IsReceivable reports whether a response or rejection may still be recorded.
func (r *RFQ) IsReceivable() bool {
	switch r.Statut {
	case RFQSent, RFQViewed, RFQRelance1, RFQRelance2, RFQRelance3:
		return true
	}
	return false
}

// QuoteLine is one requested article line under an RFQ. The numero_da
// back-reference is provenance, kept denormalized on purpose so traceability
// queries need no join through the DA table.
type QuoteLine struct {
	ID                 int     `json:"id" db:"id"`
	RFQUUID            string  `json:"rfq_uuid" db:"rfq_uuid"`
	NumeroDA           string  `json:"numero_da" db:"numero_da"`
	CodeArticle        string  `json:"code_article" db:"code_article"`
	DesignationArticle string  `json:"designation_article" db:"designation_article"`
	QuantiteDemandee   float64 `json:"quantite_demandee" db:"quantite_demandee"`
	Unite              string  `json:"unite" db:"unite"`
	MarqueSouhaitee    string  `json:"marque_souhaitee" db:"marque_souhaitee"`
}

// IssueRFQLine is one article line of an issue request.
type IssueRFQLine struct {
	NumeroDA           string  `json:"numero_da" binding:"required"`
	CodeArticle        string  `json:"code_article" binding:"required"`
	DesignationArticle string  `json:"designation_article"`
	Quantite           float64 `json:"quantite" binding:"required"`
	Unite              string  `json:"unite"`
	MarqueSouhaitee    string  `json:"marque_souhaitee"`
}

// IssueRFQRequest creates one RFQ for one supplier covering a DA batch.
type IssueRFQRequest struct {
	CodeFournisseur string         `json:"code_fournisseur" binding:"required"`
	Lignes          []IssueRFQLine `json:"lignes" binding:"required"`
}
