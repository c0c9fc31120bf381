package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/eludris-go/eludris/internal/apierror"
	"github.com/eludris-go/eludris/internal/models"
)

// CreateMessage inserts a message, its attachments and any
// caller-supplied custom embeds in one transaction, enforcing the
// non-emptiness invariant (§3 invariant 4) before touching the
// database. Custom embeds occupy ordinals starting at 0; embeds the
// detached populate_embeds task later discovers are appended after
// them via SaveEmbeds.
func (s *Store) CreateMessage(ctx context.Context, m models.Message, createdAt int64) error {
	if !m.NonEmpty() {
		return apierror.Validationf("content", "a message needs content, an attachment or an embed")
	}
	return s.DB.DoTxn(ctx, nil, func(txCtx context.Context) error {
		_, err := s.DB.Exec(txCtx,
			`INSERT INTO messages (id, channel_id, author_id, content, reference, created_at, is_deleted)
			 VALUES ($1,$2,$3,$4,$5,$6,FALSE)`,
			m.ID, m.ChannelID, m.AuthorID, m.Content, m.Reference, createdAt)
		if err != nil {
			return err
		}
		for _, a := range m.Attachments {
			if _, err := s.DB.Exec(txCtx,
				`INSERT INTO attachments (message_id, file_id, description, spoiler) VALUES ($1,$2,$3,$4)`,
				m.ID, a.FileID, a.Description, a.Spoiler); err != nil {
				return err
			}
		}
		return insertEmbeds(txCtx, s, m.ID, m.Embeds, 0)
	})
}

// insertEmbeds writes embeds starting at startOrdinal, within an
// already-open transaction context.
func insertEmbeds(ctx context.Context, s *Store, messageID uint64, embeds []models.Embed, startOrdinal int64) error {
	for i, e := range embeds {
		payload, err := json.Marshal(e)
		if err != nil {
			return err
		}
		if _, err := s.DB.Exec(ctx,
			`INSERT INTO embeds (message_id, ordinal, url, type, payload) VALUES ($1,$2,$3,$4,$5)`,
			messageID, startOrdinal+int64(i), e.URL, string(e.Type), string(payload)); err != nil {
			return err
		}
	}
	return nil
}

// nextEmbedOrdinal returns one past the highest ordinal currently
// stored for messageID, so appended embeds never collide with existing
// rows.
func (s *Store) nextEmbedOrdinal(ctx context.Context, messageID uint64) (int64, error) {
	row := s.DB.QueryRow(ctx, `SELECT COALESCE(MAX(ordinal), -1) FROM embeds WHERE message_id=$1`, messageID)
	var max int64
	if err := row.Scan(&max); err != nil {
		return 0, err
	}
	return max + 1, nil
}

func scanMessage(row scanner) (models.Message, error) {
	var m models.Message
	var content sql.NullString
	var authorID, reference sql.NullInt64
	var isDeleted bool
	err := row.Scan(&m.ID, &m.ChannelID, &authorID, &content, &reference, &isDeleted)
	if err != nil {
		return m, err
	}
	if content.Valid {
		m.Content = &content.String
	}
	if authorID.Valid {
		v := uint64(authorID.Int64)
		m.AuthorID = &v
	}
	if reference.Valid {
		v := uint64(reference.Int64)
		m.Reference = &v
	}
	return m, nil
}

const messageColumns = `id, channel_id, author_id, content, reference, is_deleted`

// GetMessage fetches a live message with its attachments, embeds and
// reactions populated.
func (s *Store) GetMessage(ctx context.Context, id uint64) (models.Message, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+messageColumns+` FROM messages WHERE id=$1 AND is_deleted=FALSE`, id)
	m, err := scanMessage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return m, apierror.NotFoundf("message not found")
	}
	if err != nil {
		return m, err
	}
	if err := s.populateMessage(ctx, &m); err != nil {
		return m, err
	}
	return m, nil
}

func (s *Store) populateMessage(ctx context.Context, m *models.Message) error {
	attRows, err := s.DB.Query(ctx, `SELECT file_id, description, spoiler FROM attachments WHERE message_id=$1`, m.ID)
	if err != nil {
		return err
	}
	defer attRows.Close()
	for attRows.Next() {
		var a models.Attachment
		var desc sql.NullString
		if err := attRows.Scan(&a.FileID, &desc, &a.Spoiler); err != nil {
			return err
		}
		if desc.Valid {
			a.Description = &desc.String
		}
		a.MessageID = m.ID
		m.Attachments = append(m.Attachments, a)
	}
	if err := attRows.Err(); err != nil {
		return err
	}

	embedRows, err := s.DB.Query(ctx, `SELECT type, url, payload FROM embeds WHERE message_id=$1 ORDER BY ordinal`, m.ID)
	if err != nil {
		return err
	}
	defer embedRows.Close()
	for embedRows.Next() {
		var embedType, url, payload string
		if err := embedRows.Scan(&embedType, &url, &payload); err != nil {
			return err
		}
		var e models.Embed
		if err := json.Unmarshal([]byte(payload), &e); err != nil {
			return err
		}
		e.Type, e.URL = models.EmbedType(embedType), url
		m.Embeds = append(m.Embeds, e)
	}
	if err := embedRows.Err(); err != nil {
		return err
	}

	reactionRows, err := s.DB.Query(ctx, `SELECT emoji, user_id FROM reactions WHERE message_id=$1 ORDER BY emoji`, m.ID)
	if err != nil {
		return err
	}
	defer reactionRows.Close()
	byEmoji := map[string]*models.Reaction{}
	var order []string
	for reactionRows.Next() {
		var emoji string
		var userID uint64
		if err := reactionRows.Scan(&emoji, &userID); err != nil {
			return err
		}
		r, ok := byEmoji[emoji]
		if !ok {
			r = &models.Reaction{MessageID: m.ID, EmojiRef: emoji}
			byEmoji[emoji] = r
			order = append(order, emoji)
		}
		r.UserIDs = append(r.UserIDs, userID)
	}
	if err := reactionRows.Err(); err != nil {
		return err
	}
	for _, emoji := range order {
		m.Reactions = append(m.Reactions, *byEmoji[emoji])
	}
	return nil
}

// ListMessages returns up to limit live messages from channelID, newest
// first, optionally paginated strictly-before beforeID (0 means no bound).
func (s *Store) ListMessages(ctx context.Context, channelID uint64, beforeID uint64, limit int) ([]models.Message, error) {
	var rows *sql.Rows
	var err error
	if beforeID == 0 {
		rows, err = s.DB.Query(ctx,
			`SELECT `+messageColumns+` FROM messages WHERE channel_id=$1 AND is_deleted=FALSE ORDER BY id DESC LIMIT $2`,
			channelID, limit)
	} else {
		rows, err = s.DB.Query(ctx,
			`SELECT `+messageColumns+` FROM messages WHERE channel_id=$1 AND is_deleted=FALSE AND id < $2 ORDER BY id DESC LIMIT $3`,
			channelID, beforeID, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		if err := s.populateMessage(ctx, &m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MessagePatch carries the three-state fields accepted by
// PATCH /channels/{cid}/messages/{mid} (§4.5): omitted fields are left
// unchanged, matching the convention store.SpherePatch established.
type MessagePatch struct {
	HasContent bool
	Content    *string
	HasEmbeds  bool
	Embeds     []models.Embed
}

// EditMessage applies a partial message edit, re-checking non-emptiness
// against the resulting content/attachments/embeds. A PATCH body that
// omits "content" leaves the stored content untouched rather than
// clearing it (§4.5's merge semantics).
func (s *Store) EditMessage(ctx context.Context, id uint64, p MessagePatch, editedAt int64) error {
	m, err := s.GetMessage(ctx, id)
	if err != nil {
		return err
	}
	if p.HasContent {
		m.Content = p.Content
	}
	if p.HasEmbeds {
		m.Embeds = p.Embeds
	}
	if !m.NonEmpty() {
		return apierror.Validationf("content", "a message needs content, an attachment or an embed")
	}
	return s.DB.DoTxn(ctx, nil, func(txCtx context.Context) error {
		if p.HasContent {
			if _, err := s.DB.Exec(txCtx, `UPDATE messages SET content=$1, edited_at=$2 WHERE id=$3`, p.Content, editedAt, id); err != nil {
				return err
			}
		}
		if p.HasEmbeds {
			if err := s.replaceCustomEmbeds(txCtx, id, p.Embeds); err != nil {
				return err
			}
		}
		return nil
	})
}

// replaceCustomEmbeds drops a message's CUSTOM-type embeds and inserts
// a fresh set, leaving any system-discovered (WEBSITE/IMAGE/VIDEO/…)
// embeds untouched.
func (s *Store) replaceCustomEmbeds(ctx context.Context, messageID uint64, embeds []models.Embed) error {
	if _, err := s.DB.Exec(ctx, `DELETE FROM embeds WHERE message_id=$1 AND type=$2`, messageID, string(models.EmbedCustom)); err != nil {
		return err
	}
	next, err := s.nextEmbedOrdinal(ctx, messageID)
	if err != nil {
		return err
	}
	return insertEmbeds(ctx, s, messageID, embeds, next)
}

// DeleteMessage soft-deletes a message.
func (s *Store) DeleteMessage(ctx context.Context, id uint64) error {
	_, err := s.DB.Exec(ctx, `UPDATE messages SET is_deleted=TRUE WHERE id=$1`, id)
	return err
}

// SaveEmbeds persists embeds computed by the detached populate_embeds
// task (§4.8), replacing any previously-stored system-discovered set
// for the message but leaving caller-supplied CUSTOM embeds alone —
// they're owned by message create/edit, not by this background task.
func (s *Store) SaveEmbeds(ctx context.Context, messageID uint64, embeds []models.Embed) error {
	return s.DB.DoTxn(ctx, nil, func(txCtx context.Context) error {
		if _, err := s.DB.Exec(txCtx, `DELETE FROM embeds WHERE message_id=$1 AND type != $2`, messageID, string(models.EmbedCustom)); err != nil {
			return err
		}
		next, err := s.nextEmbedOrdinal(txCtx, messageID)
		if err != nil {
			return err
		}
		return insertEmbeds(txCtx, s, messageID, embeds, next)
	})
}
