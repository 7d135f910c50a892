package storage

import (
	"database/sql"
	"fmt"

	"fluxachat/models"
	"fluxachat/services"
)

const selectionColumns = `id, code_article, designation, numero_da, quantite, unite,
	code_fournisseur, detail_id, prix_selectionne, devise, marque_proposee, marque_conforme,
	date_livraison, delai_livraison, selection_auto, modifie_par, date_selection,
	date_modification, statut, numero_bc`

func scanSelection(row interface{ Scan(...any) error }) (*models.Selection, error) {
	var sel models.Selection
	err := row.Scan(&sel.ID, &sel.CodeArticle, &sel.Designation, &sel.NumeroDA,
		&sel.Quantite, &sel.Unite, &sel.CodeFournisseur, &sel.DetailID,
		&sel.PrixSelectionne, &sel.Devise, &sel.MarqueProposee, &sel.MarqueConforme,
		&sel.DateLivraison, &sel.DelaiLivraison, &sel.SelectionAuto, &sel.ModifiePar,
		&sel.DateSelection, &sel.DateModification, &sel.Statut, &sel.NumeroBC)
	if err != nil {
		return nil, err
	}
	return &sel, nil
}

// GetSelectionByPair returns the active selection for the pair, or nil when
// none exists yet.
func (s *Store) GetSelectionByPair(codeArticle, numeroDA string) (*models.Selection, error) {
	query := `SELECT ` + selectionColumns + ` FROM selections WHERE code_article = $1 AND numero_da = $2`
	sel, err := scanSelection(s.db.QueryRow(query, codeArticle, numeroDA))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return sel, err
}

// UpsertSelection creates or replaces the selection for its pair. The unique
// (code_article, numero_da) constraint is the invariant; the upsert makes a
// re-selection a replacement, never a duplicate.
func (s *Store) UpsertSelection(sel *models.Selection) error {
	query := `
		INSERT INTO selections (code_article, designation, numero_da, quantite, unite,
			code_fournisseur, detail_id, prix_selectionne, devise, marque_proposee,
			marque_conforme, date_livraison, delai_livraison, selection_auto, modifie_par,
			date_selection, date_modification, statut, numero_bc)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (code_article, numero_da) DO UPDATE SET
			code_fournisseur = EXCLUDED.code_fournisseur,
			detail_id = EXCLUDED.detail_id,
			prix_selectionne = EXCLUDED.prix_selectionne,
			devise = EXCLUDED.devise,
			marque_proposee = EXCLUDED.marque_proposee,
			marque_conforme = EXCLUDED.marque_conforme,
			date_livraison = EXCLUDED.date_livraison,
			delai_livraison = EXCLUDED.delai_livraison,
			selection_auto = EXCLUDED.selection_auto,
			modifie_par = EXCLUDED.modifie_par,
			date_modification = EXCLUDED.date_modification,
			statut = EXCLUDED.statut
		RETURNING id
	`
	return s.db.QueryRow(query, sel.CodeArticle, sel.Designation, sel.NumeroDA, sel.Quantite,
		sel.Unite, sel.CodeFournisseur, sel.DetailID, sel.PrixSelectionne, sel.Devise,
		sel.MarqueProposee, sel.MarqueConforme, sel.DateLivraison, sel.DelaiLivraison,
		sel.SelectionAuto, sel.ModifiePar, sel.DateSelection, sel.DateModification,
		sel.Statut, sel.NumeroBC).Scan(&sel.ID)
}

// ListPairsWithOffers returns every pair with at least one answered offer and
// no active selection.
func (s *Store) ListPairsWithOffers() ([]services.ArticlePair, error) {
	query := `
		SELECT DISTINCT lc.code_article, lc.numero_da
		FROM lignes_cotation lc
		JOIN reponses_details d ON d.ligne_cotation_id = lc.id
		JOIN rfqs r ON r.uuid = d.rfq_uuid AND r.statut = 'repondu'
		LEFT JOIN selections sel ON sel.code_article = lc.code_article AND sel.numero_da = lc.numero_da
		WHERE sel.id IS NULL
		ORDER BY lc.numero_da, lc.code_article
	`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pairs []services.ArticlePair
	for rows.Next() {
		var p services.ArticlePair
		if err := rows.Scan(&p.CodeArticle, &p.NumeroDA); err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

func (s *Store) GetSelectionsByIDs(ids []int) ([]models.Selection, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	// lib/pq has no native int slice binding without pq.Array; build the
	// placeholder list instead to keep the query planner happy.
	query := `SELECT ` + selectionColumns + ` FROM selections WHERE id IN (`
	args := make([]any, len(ids))
	for i, id := range ids {
		if i > 0 {
			query += ", "
		}
		query += fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query += `) ORDER BY numero_da, code_article`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var selections []models.Selection
	for rows.Next() {
		sel, err := scanSelection(rows)
		if err != nil {
			return nil, err
		}
		selections = append(selections, *sel)
	}
	return selections, rows.Err()
}

// MarkSelectionsOrdered stamps the generated order number on the selections.
func (s *Store) MarkSelectionsOrdered(ids []int, numeroBC string) error {
	for _, id := range ids {
		query := `UPDATE selections SET statut = $1, numero_bc = $2 WHERE id = $3`
		if _, err := s.db.Exec(query, models.SelectionBCGenerated, numeroBC, id); err != nil {
			return err
		}
	}
	return nil
}

// DALinesWithoutOrder counts article lines of the DA with no bc_genere
// selection yet.
func (s *Store) DALinesWithoutOrder(numeroDA string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM demandes_achat da
		LEFT JOIN selections sel ON sel.numero_da = da.numero_da
			AND sel.code_article = da.code_article AND sel.statut = 'bc_genere'
		WHERE da.numero_da = $1 AND da.statut <> 'annule' AND sel.id IS NULL
	`
	var count int
	err := s.db.QueryRow(query, numeroDA).Scan(&count)
	return count, err
}
