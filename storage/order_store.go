package storage

import (
	"database/sql"
	"fmt"

	"fluxachat/models"
)

const orderColumns = `id, numero_bc, code_fournisseur, nom_fournisseur, email_fournisseur,
	montant_total_ht, tva_pourcent, montant_tva, montant_total_ttc, devise, statut,
	conditions_paiement, lieu_livraison, commentaire, creee_par, validee_par,
	date_validation, date_commande, fichier_commande_url, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	err := row.Scan(&po.ID, &po.NumeroBC, &po.CodeFournisseur, &po.NomFournisseur,
		&po.EmailFournisseur, &po.MontantTotalHT, &po.TVAPourcent, &po.MontantTVA,
		&po.MontantTotalTTC, &po.Devise, &po.Statut, &po.ConditionsPaiement,
		&po.LieuLivraison, &po.Commentaire, &po.CreeePar, &po.ValideePar,
		&po.DateValidation, &po.DateCommande, &po.FichierCommandeURL,
		&po.CreatedAt, &po.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &po, nil
}

// SaveOrder inserts the order and its lines in one transaction.
func (s *Store) SaveOrder(po *models.PurchaseOrder) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insertOrder := `
		INSERT INTO commandes (numero_bc, code_fournisseur, nom_fournisseur, email_fournisseur,
			montant_total_ht, tva_pourcent, montant_tva, montant_total_ttc, devise, statut,
			conditions_paiement, lieu_livraison, commentaire, creee_par, date_commande)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`
	if err := tx.QueryRow(insertOrder, po.NumeroBC, po.CodeFournisseur, po.NomFournisseur,
		po.EmailFournisseur, po.MontantTotalHT, po.TVAPourcent, po.MontantTVA,
		po.MontantTotalTTC, po.Devise, po.Statut, po.ConditionsPaiement,
		po.LieuLivraison, po.Commentaire, po.CreeePar, po.DateCommande).Scan(&po.ID); err != nil {
		return fmt.Errorf("failed to insert order: %v", err)
	}

	insertLine := `
		INSERT INTO commandes_lignes (numero_bc, selection_id, detail_id, reponse_entete_id,
			rfq_uuid, numero_da, code_article, designation, quantite, unite, prix_unitaire_ht,
			montant_ligne_ht, tva_pourcent, montant_ligne_tva, montant_ligne_ttc, date_livraison_prevue)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id
	`
	for i := range po.Lignes {
		l := &po.Lignes[i]
		if err := tx.QueryRow(insertLine, l.NumeroBC, l.SelectionID, l.DetailID,
			l.ReponseEnteteID, l.RFQUUID, l.NumeroDA, l.CodeArticle, l.Designation,
			l.Quantite, l.Unite, l.PrixUnitaireHT, l.MontantLigneHT, l.TVAPourcent,
			l.MontantLigneTVA, l.MontantLigneTTC, l.DateLivraisonPrevue).Scan(&l.ID); err != nil {
			return fmt.Errorf("failed to insert order line: %v", err)
		}
	}
	return tx.Commit()
}

// GetOrderByNumero loads one order with its lines.
func (s *Store) GetOrderByNumero(numeroBC string) (*models.PurchaseOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM commandes WHERE numero_bc = $1`
	po, err := scanOrder(s.db.QueryRow(query, numeroBC))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order %s not found", numeroBC)
	}
	if err != nil {
		return nil, err
	}

	lines, err := s.GetOrderLines(numeroBC)
	if err != nil {
		return nil, err
	}
	po.Lignes = lines
	return po, nil
}

func (s *Store) GetOrderLines(numeroBC string) ([]models.OrderLine, error) {
	query := `
		SELECT id, numero_bc, selection_id, detail_id, reponse_entete_id, rfq_uuid, numero_da,
		       code_article, designation, quantite, unite, prix_unitaire_ht, montant_ligne_ht,
		       tva_pourcent, montant_ligne_tva, montant_ligne_ttc, date_livraison_prevue
		FROM commandes_lignes WHERE numero_bc = $1 ORDER BY id
	`
	rows, err := s.db.Query(query, numeroBC)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []models.OrderLine
	for rows.Next() {
		var l models.OrderLine
		if err := rows.Scan(&l.ID, &l.NumeroBC, &l.SelectionID, &l.DetailID,
			&l.ReponseEnteteID, &l.RFQUUID, &l.NumeroDA, &l.CodeArticle, &l.Designation,
			&l.Quantite, &l.Unite, &l.PrixUnitaireHT, &l.MontantLigneHT, &l.TVAPourcent,
			&l.MontantLigneTVA, &l.MontantLigneTTC, &l.DateLivraisonPrevue); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// UpdateOrder persists the mutable order fields (status, validation).
func (s *Store) UpdateOrder(po *models.PurchaseOrder) error {
	query := `
		UPDATE commandes
		SET statut = $1, validee_par = $2, date_validation = $3,
		    fichier_commande_url = $4, updated_at = NOW()
		WHERE numero_bc = $5
	`
	_, err := s.db.Exec(query, po.Statut, po.ValideePar, po.DateValidation,
		po.FichierCommandeURL, po.NumeroBC)
	return err
}
