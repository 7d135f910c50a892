package models

import "time"

// Rejection channels.
const (
	RejectChannelEmail   = "email"
	RejectChannelWebform = "webform"
)

// ResponseHeader is one supplier's reply to an RFQ. At most one active header
// exists per RFQ; a resubmission before expiry supersedes the previous one
// (header and details are replaced, not duplicated).
type ResponseHeader struct {
	ID                 int       `json:"id" db:"id"`
	RFQUUID            string    `json:"rfq_uuid" db:"rfq_uuid"`
	Devise             string    `json:"devise" db:"devise"`
	ConditionsPaiement string    `json:"conditions_paiement" db:"conditions_paiement"`
	Commentaire        string    `json:"commentaire" db:"commentaire"`
	FichierDevisURL    string    `json:"fichier_devis_url" db:"fichier_devis_url"`
	DateReponse        time.Time `json:"date_reponse" db:"date_reponse"`
}

// ResponseDetail is one per-article line under a ResponseHeader. rfq_uuid is
// duplicated from the header as a provenance field.
type ResponseDetail struct {
	ID                 int        `json:"id" db:"id"`
	ReponseEnteteID    int        `json:"reponse_entete_id" db:"reponse_entete_id"`
	RFQUUID            string     `json:"rfq_uuid" db:"rfq_uuid"`
	LigneCotationID    int        `json:"ligne_cotation_id" db:"ligne_cotation_id"`
	CodeArticle        string     `json:"code_article" db:"code_article"`
	PrixUnitaireHT     float64    `json:"prix_unitaire_ht" db:"prix_unitaire_ht"`
	QuantiteDisponible float64    `json:"quantite_disponible" db:"quantite_disponible"`
	MarqueProposee     string     `json:"marque_proposee" db:"marque_proposee"`
	MarqueConforme     bool       `json:"marque_conforme" db:"marque_conforme"`
	DelaiLivraison     int        `json:"delai_livraison" db:"delai_livraison"`
	DateLivraison      *time.Time `json:"date_livraison" db:"date_livraison"`
	FicheTechniqueURL  string     `json:"fiche_technique_url" db:"fiche_technique_url"`
	CommentaireArticle string     `json:"commentaire_article" db:"commentaire_article"`
}

// Rejection is an explicit supplier refusal of an RFQ. Terminal.
type Rejection struct {
	ID        int       `json:"id" db:"id"`
	RFQUUID   string    `json:"rfq_uuid" db:"rfq_uuid"`
	Motif     string    `json:"motif" db:"motif"`
	Canal     string    `json:"canal" db:"canal"`
	DateRejet time.Time `json:"date_rejet" db:"date_rejet"`
}

// ResponseHeaderRequest is the inbound header payload of record_response.
type ResponseHeaderRequest struct {
	Devise             string `json:"devise"`
	ConditionsPaiement string `json:"conditions_paiement"`
	Commentaire        string `json:"commentaire"`
	FichierDevisURL    string `json:"fichier_devis_url"`
}

// ResponseLineRequest is one inbound detail line of record_response.
type ResponseLineRequest struct {
	LigneCotationID    int        `json:"ligne_cotation_id" binding:"required"`
	PrixUnitaireHT     float64    `json:"prix_unitaire_ht"`
	QuantiteDisponible float64    `json:"quantite_disponible"`
	MarqueProposee     string     `json:"marque_proposee"`
	MarqueConforme     bool       `json:"marque_conforme"`
	DelaiLivraison     int        `json:"delai_livraison"`
	DateLivraison      *time.Time `json:"date_livraison"`
	FicheTechniqueURL  string     `json:"fiche_technique_url"`
	CommentaireArticle string     `json:"commentaire_article"`
}

// RecordResponseRequest is the full record_response payload.
type RecordResponseRequest struct {
	Entete ResponseHeaderRequest `json:"entete"`
	Lignes []ResponseLineRequest `json:"lignes" binding:"required"`
}

// RecordRejectionRequest is the record_rejection payload.
type RecordRejectionRequest struct {
	Motif string `json:"motif" binding:"required"`
	Canal string `json:"canal"`
}
