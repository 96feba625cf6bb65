// Package history keeps the most recent dictations in a small sqlite table.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/leonardotrapani/hyprdictate/internal/logging"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

const DefaultMaxItems = 10

// Item is one finished dictation. Corrected is empty when the correction
// stage did not run or fell back.
type Item struct {
	ID        string
	Raw       string
	Corrected string
	CreatedAt time.Time
}

// Text is what was injected for this item.
func (i Item) Text() string {
	if i.Corrected != "" {
		return i.Corrected
	}
	return i.Raw
}

type Store struct {
	db       *sql.DB
	maxItems int
	log      zerolog.Logger
	clock    func() time.Time
}

// Open creates or opens the database at path and trims it to maxItems.
func Open(ctx context.Context, path string, maxItems int) (*Store, error) {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(2000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping history: %w", err)
	}

	s := &Store{db: db, maxItems: maxItems, log: logging.Component("history"), clock: time.Now}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.prune(ctx); err != nil {
		s.log.Warn().Err(err).Msg("prune on open failed")
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS transcriptions (
    id TEXT PRIMARY KEY,
    whisper_text TEXT NOT NULL,
    llm_text TEXT,
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transcriptions_created ON transcriptions(created_at);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("init history schema: %w", err)
	}
	return nil
}

// Add records a dictation at the front of the history, dropping the oldest
// entries beyond the limit.
func (s *Store) Add(ctx context.Context, raw, corrected string) (Item, error) {
	item := Item{
		ID:        uuid.NewString(),
		Raw:       raw,
		Corrected: corrected,
		CreatedAt: s.clock(),
	}

	var llm sql.NullString
	if corrected != "" {
		llm = sql.NullString{String: corrected, Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Item{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO transcriptions(id, whisper_text, llm_text, created_at) VALUES(?, ?, ?, ?)`,
		item.ID, item.Raw, llm, item.CreatedAt.UnixNano()); err != nil {
		return Item{}, fmt.Errorf("insert history item: %w", err)
	}
	if err := s.pruneTx(ctx, tx); err != nil {
		return Item{}, err
	}
	if err := tx.Commit(); err != nil {
		return Item{}, err
	}

	s.log.Debug().Str("id", item.ID).Bool("corrected", corrected != "").Msg("history item added")
	return item, nil
}

// List returns the stored items, newest first.
func (s *Store) List(ctx context.Context) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, whisper_text, llm_text, created_at FROM transcriptions
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`, s.maxItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		var llm sql.NullString
		var created int64
		if err := rows.Scan(&it.ID, &it.Raw, &llm, &created); err != nil {
			return nil, err
		}
		it.Corrected = llm.String
		it.CreatedAt = time.Unix(0, created)
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM transcriptions`); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	s.log.Info().Msg("history cleared")
	return nil
}

func (s *Store) prune(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := s.pruneTx(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) pruneTx(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx,
		`DELETE FROM transcriptions WHERE rowid NOT IN (
		   SELECT rowid FROM transcriptions ORDER BY created_at DESC, rowid DESC LIMIT ?
		 )`, s.maxItems)
	if err != nil {
		return fmt.Errorf("prune history: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
