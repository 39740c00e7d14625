package snippets

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/neoyipeng2018/central-bank-tracker/internal/database"
	"github.com/rs/zerolog"
)

// Repository handles snippet database operations.
// Snippets live in snippets.db and are unique per (participant, url, title),
// so fetchers can re-deliver the same items without creating duplicates.
type Repository struct {
	db    *sql.DB         // snippets.db - snippets table
	clock clockwork.Clock // Stamps fetched_at when the caller leaves it zero
	log   zerolog.Logger
}

// NewRepository creates a new snippet repository.
//
// Parameters:
//   - db: Database connection to snippets.db
//   - clock: Clock used for fetched_at defaults (clockwork.NewRealClock in production)
//   - log: Structured logger
//
// Returns:
//   - *Repository: Initialized repository instance
func NewRepository(db *sql.DB, clock clockwork.Clock, log zerolog.Logger) *Repository {
	return &Repository{
		db:    db,
		clock: clock,
		log:   log.With().Str("repository", "snippets").Logger(),
	}
}

const insertSQL = `
	INSERT OR IGNORE INTO snippets
		(participant_id, title, body, source, url, published_at, fetched_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (r *Repository) insert(ctx context.Context, ex execer, s Snippet) (bool, error) {
	if s.ParticipantID == "" {
		return false, fmt.Errorf("snippet has no participant")
	}
	fetched := s.FetchedAt
	if fetched.IsZero() {
		fetched = r.clock.Now()
	}
	var published interface{}
	if s.PublishedAt != nil {
		published = s.PublishedAt.Unix()
	}

	res, err := ex.ExecContext(ctx, insertSQL,
		s.ParticipantID, s.Title, s.Body, s.Source, s.URL, published, fetched.Unix())
	if err != nil {
		return false, fmt.Errorf("failed to insert snippet for %s: %w", s.ParticipantID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}

// Add stores one snippet.
//
// Returns:
//   - bool: false when an identical snippet was already stored
//   - error: Error if the insert fails
func (r *Repository) Add(ctx context.Context, s Snippet) (bool, error) {
	return r.insert(ctx, r.db, s)
}

// AddBatch stores snippets in one transaction and returns how many were new.
// Either every snippet is stored or none is.
func (r *Repository) AddBatch(ctx context.Context, items []Snippet) (int, error) {
	added := 0
	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		for _, s := range items {
			ok, err := r.insert(ctx, tx, s)
			if err != nil {
				return err
			}
			if ok {
				added++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.log.Debug().Int("received", len(items)).Int("added", added).Msg("Stored snippet batch")
	return added, nil
}

// ListForParticipant returns a participant's snippets fetched at or after
// since, oldest first.
//
// Parameters:
//   - ctx: Context for cancellation
//   - participantID: Roster id of the participant
//   - since: Lower bound on fetched_at; the zero time returns everything
//
// Returns:
//   - []Snippet: Matching snippets, possibly empty
//   - error: Error if the query fails
func (r *Repository) ListForParticipant(ctx context.Context, participantID string, since time.Time) ([]Snippet, error) {
	var lower int64
	if !since.IsZero() {
		lower = since.Unix()
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, participant_id, title, body, source, url, published_at, fetched_at
		FROM snippets
		WHERE participant_id = ? AND fetched_at >= ?
		ORDER BY fetched_at ASC, id ASC
	`, participantID, lower)
	if err != nil {
		return nil, fmt.Errorf("failed to query snippets for %s: %w", participantID, err)
	}
	defer rows.Close()

	var out []Snippet
	for rows.Next() {
		var (
			s         Snippet
			published sql.NullInt64
			fetched   int64
		)
		if err := rows.Scan(&s.ID, &s.ParticipantID, &s.Title, &s.Body, &s.Source, &s.URL, &published, &fetched); err != nil {
			return nil, fmt.Errorf("failed to scan snippet: %w", err)
		}
		if published.Valid {
			t := time.Unix(published.Int64, 0).UTC()
			s.PublishedAt = &t
		}
		s.FetchedAt = time.Unix(fetched, 0).UTC()
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snippets: %w", err)
	}
	return out, nil
}

// CountByParticipant returns the number of stored snippets per participant.
func (r *Repository) CountByParticipant(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT participant_id, COUNT(*) FROM snippets GROUP BY participant_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to count snippets: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("failed to scan snippet count: %w", err)
		}
		out[id] = n
	}
	return out, rows.Err()
}

// DeleteOlderThan removes snippets fetched before cutoff and returns how many
// were deleted.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM snippets WHERE fetched_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old snippets: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n > 0 {
		r.log.Info().Int64("deleted", n).Time("cutoff", cutoff).Msg("Pruned old snippets")
	}
	return n, nil
}
