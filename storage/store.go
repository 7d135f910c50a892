package storage

import (
	"database/sql"
	"fmt"

	"fluxachat/models"
)

// Store implements the persistence interfaces of the services package on top
// of PostgreSQL.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// nextSequence reserves the next value of a yearly counter. The upsert makes
// concurrent reservations safe; reserved numbers are never reused.
func (s *Store) nextSequence(year int, typ string) (int, error) {
	query := `
		INSERT INTO compteurs (annee, type, valeur) VALUES ($1, $2, 1)
		ON CONFLICT (annee, type) DO UPDATE SET valeur = compteurs.valeur + 1
		RETURNING valeur
	`
	var seq int
	if err := s.db.QueryRow(query, year, typ).Scan(&seq); err != nil {
		return 0, fmt.Errorf("failed to reserve %s sequence: %v", typ, err)
	}
	return seq, nil
}

func (s *Store) NextRFQSequence(year int) (int, error) {
	return s.nextSequence(year, "rfq")
}

func (s *Store) NextOrderSequence(year int) (int, error) {
	return s.nextSequence(year, "bc")
}

const supplierColumns = `id, code_fournisseur, nom_fournisseur, email, telephone, fax, adresse,
	pays, ville, blacklist, motif_blacklist, date_blacklist, statut, note_performance,
	nb_total_rfq, nb_reponses, taux_reponse, delai_moyen_reponse_heures, created_at, updated_at`

func scanSupplier(row interface{ Scan(...any) error }) (*models.Supplier, error) {
	var sup models.Supplier
	err := row.Scan(&sup.ID, &sup.CodeFournisseur, &sup.NomFournisseur, &sup.Email,
		&sup.Telephone, &sup.Fax, &sup.Adresse, &sup.Pays, &sup.Ville,
		&sup.Blacklist, &sup.MotifBlacklist, &sup.DateBlacklist, &sup.Statut,
		&sup.NotePerformance, &sup.NbTotalRFQ, &sup.NbReponses, &sup.TauxReponse,
		&sup.DelaiMoyenReponseHeures, &sup.CreatedAt, &sup.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sup, nil
}

func (s *Store) GetSupplier(code string) (*models.Supplier, error) {
	query := `SELECT ` + supplierColumns + ` FROM fournisseurs WHERE code_fournisseur = $1`
	sup, err := scanSupplier(s.db.QueryRow(query, code))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("supplier %s not found", code)
	}
	return sup, err
}

func (s *Store) SaveSupplierMetrics(sup *models.Supplier) error {
	query := `
		UPDATE fournisseurs
		SET nb_reponses = $1, taux_reponse = $2, delai_moyen_reponse_heures = $3, updated_at = NOW()
		WHERE code_fournisseur = $4
	`
	_, err := s.db.Exec(query, sup.NbReponses, sup.TauxReponse, sup.DelaiMoyenReponseHeures, sup.CodeFournisseur)
	return err
}

func (s *Store) IncrementSupplierRFQCount(code string) error {
	query := `
		UPDATE fournisseurs
		SET nb_total_rfq = nb_total_rfq + 1,
		    taux_reponse = CASE WHEN nb_total_rfq + 1 > 0
		        THEN nb_reponses::float / (nb_total_rfq + 1) * 100 ELSE 0 END,
		    updated_at = NOW()
		WHERE code_fournisseur = $1
	`
	_, err := s.db.Exec(query, code)
	return err
}

func (s *Store) markDAStatus(numeroDA, statut string) error {
	query := `UPDATE demandes_achat SET statut = $1, updated_at = NOW() WHERE numero_da = $2 AND statut <> 'annule'`
	_, err := s.db.Exec(query, statut, numeroDA)
	return err
}

// MarkDAInProgress moves a DA to en_cours when the first RFQ goes out.
func (s *Store) MarkDAInProgress(numeroDA string) error {
	query := `
		UPDATE demandes_achat SET statut = 'en_cours', updated_at = NOW()
		WHERE numero_da = $1 AND statut = 'nouveau'
	`
	_, err := s.db.Exec(query, numeroDA)
	return err
}

// MarkDAQuotesReceived moves a DA forward when the first quote lands. Already
// advanced statuses are left alone.
func (s *Store) MarkDAQuotesReceived(numeroDA string) error {
	query := `
		UPDATE demandes_achat SET statut = 'cotations_recues', updated_at = NOW()
		WHERE numero_da = $1 AND statut IN ('nouveau', 'en_cours')
	`
	_, err := s.db.Exec(query, numeroDA)
	return err
}

// MarkDAOrderCreated closes a DA once every article line has an order.
func (s *Store) MarkDAOrderCreated(numeroDA string) error {
	return s.markDAStatus(numeroDA, models.DAOrderCreated)
}

// GetPurchaseRequestLine loads one article line of a DA.
func (s *Store) GetPurchaseRequestLine(numeroDA, codeArticle string) (*models.PurchaseRequest, error) {
	query := `
		SELECT id, numero_da, code_article, designation_article, quantite, unite,
		       marque_souhaitee, date_creation_da, date_besoin, statut, priorite, created_at, updated_at
		FROM demandes_achat WHERE numero_da = $1 AND code_article = $2
	`
	var pr models.PurchaseRequest
	err := s.db.QueryRow(query, numeroDA, codeArticle).Scan(&pr.ID, &pr.NumeroDA, &pr.CodeArticle,
		&pr.DesignationArticle, &pr.Quantite, &pr.Unite, &pr.MarqueSouhaitee,
		&pr.DateCreationDA, &pr.DateBesoin, &pr.Statut, &pr.Priorite, &pr.CreatedAt, &pr.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("DA line %s/%s not found", numeroDA, codeArticle)
	}
	if err != nil {
		return nil, err
	}
	return &pr, nil
}
