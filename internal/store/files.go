package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/eludris-go/eludris/internal/apierror"
	"github.com/eludris-go/eludris/internal/models"
)

func scanBlob(row scanner) (models.Blob, error) {
	var b models.Blob
	var width, height sql.NullInt64
	err := row.Scan(&b.ID, &b.Bucket, &b.Hash, &b.MimeType, &b.Size, &width, &height)
	if err != nil {
		return b, err
	}
	if width.Valid {
		v := int(width.Int64)
		b.Width = &v
	}
	if height.Valid {
		v := int(height.Int64)
		b.Height = &v
	}
	return b, nil
}

const blobColumns = `id, bucket, hash, mime_type, size, width, height`

// FindBlobByHash looks up an existing deduplicated blob by content hash
// within a bucket, the dedup contract from §4.6 invariant 7.
func (s *Store) FindBlobByHash(ctx context.Context, bucket models.FileBucket, hash string) (models.Blob, bool, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+blobColumns+` FROM blobs WHERE bucket=$1 AND hash=$2`, string(bucket), hash)
	b, err := scanBlob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return b, false, nil
	}
	return b, err == nil, err
}

// CreateBlob inserts a newly-written blob's metadata. Races on identical
// content are resolved by ON CONFLICT DO NOTHING followed by a re-read,
// so every caller ends up with the one canonical row for those bytes.
func (s *Store) CreateBlob(ctx context.Context, b models.Blob, createdAt int64) (models.Blob, error) {
	_, err := s.DB.Exec(ctx,
		`INSERT INTO blobs (id, bucket, hash, mime_type, size, width, height, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		 ON CONFLICT (bucket, hash) DO NOTHING`,
		b.ID, string(b.Bucket), b.Hash, b.MimeType, b.Size, b.Width, b.Height, createdAt)
	if err != nil {
		return b, err
	}
	existing, ok, err := s.FindBlobByHash(ctx, b.Bucket, b.Hash)
	if err != nil {
		return b, err
	}
	if !ok {
		return b, apierror.Internal("blob insert vanished", nil)
	}
	return existing, nil
}

func scanFile(row scanner) (models.File, error) {
	var f models.File
	var width, height sql.NullInt64
	err := row.Scan(&f.ID, &f.BlobID, &f.Bucket, &f.Name, &f.MimeType, &f.Size, &width, &height, &f.Hash)
	if err != nil {
		return f, err
	}
	if width.Valid {
		v := int(width.Int64)
		f.Width = &v
	}
	if height.Valid {
		v := int(height.Int64)
		f.Height = &v
	}
	return f, nil
}

const fileJoinColumns = `f.id, f.blob_id, f.bucket, f.name, b.mime_type, b.size, b.width, b.height, b.hash`
const fileJoin = `FROM files f JOIN blobs b ON b.id = f.blob_id`

// CreateFile inserts a fresh per-upload file record pointing at blobID.
// Unlike blobs, files are never deduplicated: every upload call gets its
// own id even when the bytes (and therefore blobID) are identical to a
// prior upload (§8 scenario 5).
func (s *Store) CreateFile(ctx context.Context, id uint64, blobID uint64, bucket models.FileBucket, name string, createdAt int64) (models.File, error) {
	_, err := s.DB.Exec(ctx,
		`INSERT INTO files (id, blob_id, bucket, name, created_at) VALUES ($1,$2,$3,$4,$5)`,
		id, blobID, string(bucket), name, createdAt)
	if err != nil {
		return models.File{}, err
	}
	return s.GetFile(ctx, id)
}

// GetFile fetches a file's metadata joined with its blob's content info.
func (s *Store) GetFile(ctx context.Context, id uint64) (models.File, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+fileJoinColumns+` `+fileJoin+` WHERE f.id=$1`, id)
	f, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return f, apierror.NotFoundf("file not found")
	}
	return f, err
}
