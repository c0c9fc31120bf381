package models

// FileBucket names the Effis bucket a file was uploaded into (§4.6).
type FileBucket string

const (
	BucketAttachments FileBucket = "attachments"
	BucketAvatars     FileBucket = "avatars"
	BucketBanners     FileBucket = "banners"
	BucketIcons       FileBucket = "icons"
	BucketEmojis      FileBucket = "emojis"
	BucketStatic      FileBucket = "static"
)

// Blob is the content-addressed, deduplicated on-disk payload behind one
// or more uploads sharing the same bytes within a bucket (§4.6 invariant
// 7). Its id is stable across every upload of identical content.
type Blob struct {
	ID       uint64
	Bucket   FileBucket
	Hash     string
	MimeType string
	Size     int64
	Width    *int
	Height   *int
}

// File is one upload's addressable record (§6.1's `/{bucket}/{id}`
// routes key on File.ID). Re-uploading identical bytes always creates a
// fresh File row with a fresh ID, but every such row's BlobID points at
// the same deduplicated Blob (§8 scenario 5): the blob is stored and
// served once, the upload event is recorded every time.
type File struct {
	ID       uint64     `json:"id"`
	BlobID   uint64     `json:"file_id"`
	Bucket   FileBucket `json:"-"`
	Name     string     `json:"name"`
	MimeType string     `json:"content_type"`
	Size     int64      `json:"size"`
	Width    *int       `json:"width,omitempty"`
	Height   *int       `json:"height,omitempty"`
	Hash     string     `json:"-"`
}

// FileMetadata is the public representation embedded in attachments.
type FileMetadata struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Bucket   string `json:"bucket"`
	MimeType string `json:"content_type"`
	Size     int64  `json:"size"`
}
