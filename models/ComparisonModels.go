package models

import "time"

// Comparison decision statuses.
const (
	DecisionPending   = "en_attente"
	DecisionValidated = "validee"
	DecisionRejected  = "rejetee"
)

// Offre is one supplier offer for a (numero_da, code_article) pair, flattened
// from a ResponseDetail joined with its RFQ and supplier.
type Offre struct {
	DetailID           int        `json:"detail_id" db:"detail_id"`
	RFQUUID            string     `json:"rfq_uuid" db:"rfq_uuid"`
	NumeroRFQ          string     `json:"numero_rfq" db:"numero_rfq"`
	CodeFournisseur    string     `json:"code_fournisseur" db:"code_fournisseur"`
	NomFournisseur     string     `json:"nom_fournisseur" db:"nom_fournisseur"`
	PrixUnitaireHT     float64    `json:"prix_unitaire_ht" db:"prix_unitaire_ht"`
	QuantiteDisponible float64    `json:"quantite_disponible" db:"quantite_disponible"`
	DelaiLivraison     int        `json:"delai_livraison" db:"delai_livraison"`
	DateLivraison      *time.Time `json:"date_livraison" db:"date_livraison"`
	MarqueProposee     string     `json:"marque_proposee" db:"marque_proposee"`
	MarqueConforme     bool       `json:"marque_conforme" db:"marque_conforme"`
	Devise             string     `json:"devise" db:"devise"`
	DateReponse        time.Time  `json:"date_reponse" db:"date_reponse"`
	Blacklist          bool       `json:"blacklist" db:"blacklist"`
	Score              float64    `json:"score" db:"-"`
}

// Comparison is the aggregated, scored rollup of all offers for one
// (numero_da, code_article) pair. Recomputing it from the same offer set
// always yields the same output.
type Comparison struct {
	NumeroDA                 string     `json:"numero_da"`
	CodeArticle              string     `json:"code_article"`
	NbRFQEnvoyees            int        `json:"nb_rfq_envoyees"`
	NbReponses               int        `json:"nb_reponses"`
	NbRejets                 int        `json:"nb_rejets"`
	PrixMin                  float64    `json:"prix_min"`
	PrixMax                  float64    `json:"prix_max"`
	PrixMoyen                float64    `json:"prix_moyen"`
	EcartPrixPourcent        float64    `json:"ecart_prix_pourcent"`
	MeilleurPrixFournisseur  string     `json:"meilleur_prix_fournisseur"`
	MeilleurPrix             float64    `json:"meilleur_prix"`
	MeilleurDelaiFournisseur string     `json:"meilleur_delai_fournisseur"`
	MeilleurDelaiJours       int        `json:"meilleur_delai_jours"`
	FournisseurRecommande    string     `json:"fournisseur_recommande"`
	ScoreRecommandation      float64    `json:"score_recommandation"`
	RaisonRecommandation     string     `json:"raison_recommandation"`
	Offres                   []Offre    `json:"offres"`
	StatutDecision           string     `json:"statut_decision"`
	ValidePar                string     `json:"valide_par,omitempty"`
	DateValidation           *time.Time `json:"date_validation,omitempty"`
}

// Decision is the buyer's verdict on the comparison of one pair. A decided
// pair stays decided.
type Decision struct {
	ID             int       `json:"id" db:"id"`
	NumeroDA       string    `json:"numero_da" db:"numero_da"`
	CodeArticle    string    `json:"code_article" db:"code_article"`
	Statut         string    `json:"statut" db:"statut"`
	ValidePar      string    `json:"valide_par" db:"valide_par"`
	Commentaire    string    `json:"commentaire" db:"commentaire"`
	DateValidation time.Time `json:"date_validation" db:"date_validation"`
}

// DecideComparisonRequest is the validate/reject payload for one pair.
type DecideComparisonRequest struct {
	NumeroDA    string `json:"numero_da" binding:"required"`
	CodeArticle string `json:"code_article" binding:"required"`
	Statut      string `json:"statut" binding:"required"`
	Commentaire string `json:"commentaire"`
}
