package history

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/mattjoyce/crewtool/internal/crew"
)

// ErrNotFound is returned by Get for an unknown invocation id.
var ErrNotFound = errors.New("invocation not found")

// timeLayout is fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DefaultLimit bounds Recent when the caller passes no limit.
const DefaultLimit = 20

// Entry is one journaled invocation. Output itself is not stored, only its
// digest and size.
type Entry struct {
	ID           string        `json:"id"`
	Package      string        `json:"package"`
	Crew         string        `json:"crew"`
	Success      bool          `json:"success"`
	Category     crew.Category `json:"error_category,omitempty"`
	ExitCode     *int          `json:"exit_code,omitempty"`
	DurationMs   int64         `json:"duration_ms"`
	Error        string        `json:"error,omitempty"`
	OutputDigest string        `json:"output_digest"`
	OutputBytes  int           `json:"output_bytes"`
	CreatedAt    time.Time     `json:"created_at"`
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Open opens the journal at path and returns a Store owning the handle.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := OpenSQLite(ctx, path)
	if err != nil {
		return nil, err
	}
	return NewStore(db), nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Digest returns the blake3 digest used for Entry.OutputDigest.
func Digest(output string) string {
	sum := blake3.Sum256([]byte(output))
	return "blake3:" + hex.EncodeToString(sum[:])
}

// Record journals the outcome of req. A missing req.ID gets a fresh one.
func (s *Store) Record(ctx context.Context, req crew.Request, res crew.Result) (Entry, error) {
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	e := Entry{
		ID:           id,
		Package:      req.Package,
		Crew:         req.Crew,
		Success:      res.Success,
		Category:     res.Category,
		ExitCode:     res.ExitCode,
		DurationMs:   res.DurationMs,
		Error:        res.Error,
		OutputDigest: Digest(res.Output),
		OutputBytes:  len(res.Output),
		CreatedAt:    s.now().UTC(),
	}

	var exitCode sql.NullInt64
	if e.ExitCode != nil {
		exitCode = sql.NullInt64{Int64: int64(*e.ExitCode), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO invocations(id, package, crew, success, error_category, exit_code, duration_ms, error, output_digest, output_bytes, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`, e.ID, e.Package, e.Crew, boolToInt(e.Success), nullString(string(e.Category)), exitCode,
		e.DurationMs, nullString(e.Error), e.OutputDigest, e.OutputBytes, e.CreatedAt.Format(timeLayout))
	if err != nil {
		return Entry{}, fmt.Errorf("insert invocation: %w", err)
	}
	return e, nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, package, crew, success, error_category, exit_code, duration_ms, error, output_digest, output_bytes, created_at
FROM invocations
ORDER BY created_at DESC, rowid DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query invocations: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invocations: %w", err)
	}
	return entries, nil
}

// Get returns a single entry or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (Entry, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, package, crew, success, error_category, exit_code, duration_ms, error, output_digest, output_bytes, created_at
FROM invocations
WHERE id = ?;
`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return e, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (Entry, error) {
	var (
		e          Entry
		success    int
		category   sql.NullString
		exitCode   sql.NullInt64
		errText    sql.NullString
		createdAtS string
	)
	if err := sc.Scan(&e.ID, &e.Package, &e.Crew, &success, &category, &exitCode,
		&e.DurationMs, &errText, &e.OutputDigest, &e.OutputBytes, &createdAtS); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("scan invocation: %w", err)
	}
	e.Success = success != 0
	e.Category = crew.Category(category.String)
	e.Error = errText.String
	if exitCode.Valid {
		code := int(exitCode.Int64)
		e.ExitCode = &code
	}
	if t, err := time.Parse(timeLayout, createdAtS); err == nil {
		e.CreatedAt = t
	}
	return e, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
