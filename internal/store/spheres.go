package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/eludris-go/eludris/internal/apierror"
	"github.com/eludris-go/eludris/internal/bitflag"
	"github.com/eludris-go/eludris/internal/models"
)

// CreateSphere inserts a new sphere together with its implicit default
// category (whose id equals the sphere's id, §4.7).
func (s *Store) CreateSphere(ctx context.Context, sp models.Sphere) error {
	return s.DB.DoTxn(ctx, nil, func(txCtx context.Context) error {
		_, err := s.DB.Exec(txCtx,
			`INSERT INTO spheres (id, owner_id, slug, name, type, description, icon, banner, badges, is_deleted)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,FALSE)`,
			sp.ID, sp.OwnerID, sp.Slug, sp.Name, string(sp.Type), sp.Description, sp.IconID, sp.BannerID, sp.Badges.Bits())
		if isUniqueViolation(err) {
			return apierror.Conflictf("slug", "sphere slug already taken")
		}
		if err != nil {
			return err
		}
		_, err = s.DB.Exec(txCtx,
			`INSERT INTO categories (id, sphere_id, name, position, is_deleted) VALUES ($1,$1,'Home',0,FALSE)`,
			sp.ID)
		return err
	})
}

func scanSphere(row scanner) (models.Sphere, error) {
	var sp models.Sphere
	var badges uint64
	var name, description sql.NullString
	var icon, banner sql.NullInt64
	err := row.Scan(&sp.ID, &sp.OwnerID, &sp.Slug, &name, &sp.Type, &description, &icon, &banner, &badges, &sp.IsDeleted)
	if err != nil {
		return sp, err
	}
	if name.Valid {
		sp.Name = &name.String
	}
	if description.Valid {
		sp.Description = &description.String
	}
	if icon.Valid {
		v := uint64(icon.Int64)
		sp.IconID = &v
	}
	if banner.Valid {
		v := uint64(banner.Int64)
		sp.BannerID = &v
	}
	sp.Badges = bitflag.FromBits(badges)
	return sp, nil
}

const sphereColumns = `id, owner_id, slug, name, type, description, icon, banner, badges, is_deleted`

// GetSphere fetches a live sphere by id.
func (s *Store) GetSphere(ctx context.Context, id uint64) (models.Sphere, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+sphereColumns+` FROM spheres WHERE id=$1 AND is_deleted=FALSE`, id)
	sp, err := scanSphere(row)
	if errors.Is(err, sql.ErrNoRows) {
		return sp, apierror.NotFoundf("sphere not found")
	}
	return sp, err
}

// GetSphereBySlug fetches a live sphere by its unique slug.
func (s *Store) GetSphereBySlug(ctx context.Context, slug string) (models.Sphere, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+sphereColumns+` FROM spheres WHERE slug=$1 AND is_deleted=FALSE`, slug)
	sp, err := scanSphere(row)
	if errors.Is(err, sql.ErrNoRows) {
		return sp, apierror.NotFoundf("sphere not found")
	}
	return sp, err
}

// ListSpheresForUser returns every live sphere userID belongs to, used
// to populate the AUTHENTICATED{user, spheres} gateway reply (§4.10, §6.3).
func (s *Store) ListSpheresForUser(ctx context.Context, userID uint64) ([]models.Sphere, error) {
	rows, err := s.DB.Query(ctx,
		`SELECT s.id, s.owner_id, s.slug, s.name, s.type, s.description, s.icon, s.banner, s.badges, s.is_deleted
		 FROM spheres s JOIN members m ON m.sphere_id = s.id
		 WHERE m.user_id = $1 AND s.is_deleted = FALSE`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Sphere
	for rows.Next() {
		sp, err := scanSphere(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

// SpherePatch carries the three-state fields accepted by PATCH /spheres/{id}.
type SpherePatch struct {
	Name        *string
	HasName     bool
	Description *string
	HasDescription bool
	Type        *models.SphereType
	IconID      *uint64
	HasIcon     bool
	BannerID    *uint64
	HasBanner   bool
}

// UpdateSphere applies a partial sphere edit, enforcing the
// upgrade-only type transition invariant.
func (s *Store) UpdateSphere(ctx context.Context, id uint64, p SpherePatch) error {
	if p.Type != nil {
		current, err := s.GetSphere(ctx, id)
		if err != nil {
			return err
		}
		if !models.CanUpgradeTo(current.Type, *p.Type) {
			return apierror.Validationf("type", "spheres can only upgrade CHAT or FORUM to HYBRID")
		}
		if _, err := s.DB.Exec(ctx, `UPDATE spheres SET type=$1 WHERE id=$2`, string(*p.Type), id); err != nil {
			return err
		}
	}
	if p.HasName {
		if _, err := s.DB.Exec(ctx, `UPDATE spheres SET name=$1 WHERE id=$2`, p.Name, id); err != nil {
			return err
		}
	}
	if p.HasDescription {
		if _, err := s.DB.Exec(ctx, `UPDATE spheres SET description=$1 WHERE id=$2`, p.Description, id); err != nil {
			return err
		}
	}
	if p.HasIcon {
		if _, err := s.DB.Exec(ctx, `UPDATE spheres SET icon=$1 WHERE id=$2`, p.IconID, id); err != nil {
			return err
		}
	}
	if p.HasBanner {
		if _, err := s.DB.Exec(ctx, `UPDATE spheres SET banner=$1 WHERE id=$2`, p.BannerID, id); err != nil {
			return err
		}
	}
	return nil
}

// SoftDeleteSphere tombstones a sphere.
func (s *Store) SoftDeleteSphere(ctx context.Context, id uint64) error {
	_, err := s.DB.Exec(ctx, `UPDATE spheres SET is_deleted=TRUE WHERE id=$1`, id)
	return err
}
