package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/eludris-go/eludris/internal/apierror"
	"github.com/eludris-go/eludris/internal/models"
)

func scanCategory(row scanner) (models.Category, error) {
	var c models.Category
	err := row.Scan(&c.ID, &c.SphereID, &c.Name, &c.Position, &c.IsDeleted)
	return c, err
}

const categoryColumns = `id, sphere_id, name, position, is_deleted`

// GetCategory fetches a live category by id.
func (s *Store) GetCategory(ctx context.Context, id uint64) (models.Category, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id=$1 AND is_deleted=FALSE`, id)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return c, apierror.NotFoundf("category not found")
	}
	return c, err
}

// ListCategories returns every live category of a sphere ordered by position.
func (s *Store) ListCategories(ctx context.Context, sphereID uint64) ([]models.Category, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+categoryColumns+` FROM categories WHERE sphere_id=$1 AND is_deleted=FALSE ORDER BY position`, sphereID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateCategory inserts a new category at the end of its sphere's
// ordering (§4.7).
func (s *Store) CreateCategory(ctx context.Context, c models.Category) error {
	var maxPos sql.NullInt64
	row := s.DB.QueryRow(ctx, `SELECT MAX(position) FROM categories WHERE sphere_id=$1 AND is_deleted=FALSE`, c.SphereID)
	if err := row.Scan(&maxPos); err != nil {
		return err
	}
	c.Position = uint32(maxPos.Int64) + 1
	_, err := s.DB.Exec(ctx, `INSERT INTO categories (id, sphere_id, name, position, is_deleted) VALUES ($1,$2,$3,$4,FALSE)`,
		c.ID, c.SphereID, c.Name, c.Position)
	return err
}

// RenameCategory updates a category's name. The default category
// (IsDefault) may never be edited (§4.7 invariant).
func (s *Store) RenameCategory(ctx context.Context, id uint64, name string) error {
	cat, err := s.GetCategory(ctx, id)
	if err != nil {
		return err
	}
	if cat.IsDefault() {
		return apierror.Forbiddenf("the default category cannot be edited")
	}
	_, err = s.DB.Exec(ctx, `UPDATE categories SET name=$1 WHERE id=$2`, name, id)
	return err
}

// MoveCategory relocates a category to newPosition within its sphere,
// shifting every category between the old and new position by one slot
// so positions stay dense with no gaps or duplicates (§4.7, grounded on
// the original implementation's single CASE-WHEN range shift).
func (s *Store) MoveCategory(ctx context.Context, id uint64, newPosition uint32) error {
	cat, err := s.GetCategory(ctx, id)
	if err != nil {
		return err
	}
	if cat.IsDefault() {
		return apierror.Forbiddenf("the default category cannot be moved")
	}
	if cat.Position == newPosition {
		return nil
	}
	return s.DB.DoTxn(ctx, nil, func(txCtx context.Context) error {
		if newPosition > cat.Position {
			_, err := s.DB.Exec(txCtx,
				`UPDATE categories SET position = CASE WHEN id=$1 THEN $2 ELSE position - 1 END
				 WHERE sphere_id=$3 AND is_deleted=FALSE AND position BETWEEN $4 AND $2`,
				id, newPosition, cat.SphereID, cat.Position)
			return err
		}
		_, err := s.DB.Exec(txCtx,
			`UPDATE categories SET position = CASE WHEN id=$1 THEN $2 ELSE position + 1 END
			 WHERE sphere_id=$3 AND is_deleted=FALSE AND position BETWEEN $2 AND $4`,
			id, newPosition, cat.SphereID, cat.Position)
		return err
	})
}

// DeleteCategory soft-deletes a non-default category and compacts the
// positions of every category after it.
func (s *Store) DeleteCategory(ctx context.Context, id uint64) error {
	cat, err := s.GetCategory(ctx, id)
	if err != nil {
		return err
	}
	if cat.IsDefault() {
		return apierror.Forbiddenf("the default category cannot be deleted")
	}
	return s.DB.DoTxn(ctx, nil, func(txCtx context.Context) error {
		if _, err := s.DB.Exec(txCtx, `UPDATE categories SET is_deleted=TRUE WHERE id=$1`, id); err != nil {
			return err
		}
		_, err := s.DB.Exec(txCtx,
			`UPDATE categories SET position = position - 1 WHERE sphere_id=$1 AND is_deleted=FALSE AND position > $2`,
			cat.SphereID, cat.Position)
		return err
	})
}
