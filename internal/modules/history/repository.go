package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/neoyipeng2018/central-bank-tracker/internal/stance"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// Repository handles stance history and run log persistence in history.db.
type Repository struct {
	db    *sql.DB
	clock clockwork.Clock
	log   zerolog.Logger
}

// NewRepository creates a new history repository.
//
// Parameters:
//   - db: Database connection to history.db
//   - clock: Clock used to stamp updated_at
//   - log: Structured logger
//
// Returns:
//   - *Repository: Initialized repository instance
func NewRepository(db *sql.DB, clock clockwork.Clock, log zerolog.Logger) *Repository {
	return &Repository{
		db:    db,
		clock: clock,
		log:   log.With().Str("repository", "history").Logger(),
	}
}

const entryColumns = `participant_id, date, score, label, policy_score, policy_label,
	balance_sheet_score, balance_sheet_label, source, snippet_count, evidence, run_id, updated_at`

// Upsert records e, replacing any entry for the same participant and date.
// The stored UpdatedAt is the repository clock's current time.
func (r *Repository) Upsert(ctx context.Context, e Entry) error {
	if e.ParticipantID == "" {
		return fmt.Errorf("history entry has no participant")
	}
	if _, err := time.Parse(DateLayout, e.Date); err != nil {
		return fmt.Errorf("invalid history date %q: %w", e.Date, err)
	}

	blob, err := msgpack.Marshal(e.Evidence)
	if err != nil {
		return fmt.Errorf("failed to encode evidence: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO stance_history (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(participant_id, date) DO UPDATE SET
			score = excluded.score,
			label = excluded.label,
			policy_score = excluded.policy_score,
			policy_label = excluded.policy_label,
			balance_sheet_score = excluded.balance_sheet_score,
			balance_sheet_label = excluded.balance_sheet_label,
			source = excluded.source,
			snippet_count = excluded.snippet_count,
			evidence = excluded.evidence,
			run_id = excluded.run_id,
			updated_at = excluded.updated_at
	`,
		e.ParticipantID, e.Date, e.Score, string(e.Label), e.PolicyScore, string(e.PolicyLabel),
		e.BalanceSheetScore, string(e.BalanceSheetLabel), string(e.Source), e.SnippetCount,
		blob, e.RunID, r.clock.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert history for %s on %s: %w", e.ParticipantID, e.Date, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		e       Entry
		label   string
		pLabel  string
		bsLabel string
		source  string
		blob    []byte
		updated int64
	)
	err := row.Scan(&e.ParticipantID, &e.Date, &e.Score, &label, &e.PolicyScore, &pLabel,
		&e.BalanceSheetScore, &bsLabel, &source, &e.SnippetCount, &blob, &e.RunID, &updated)
	if err != nil {
		return Entry{}, err
	}
	e.Label = stance.Label(label)
	e.PolicyLabel = stance.Label(pLabel)
	e.BalanceSheetLabel = stance.Label(bsLabel)
	e.Source = stance.Source(source)
	e.UpdatedAt = time.Unix(updated, 0).UTC()

	if len(blob) > 0 {
		if err := msgpack.Unmarshal(blob, &e.Evidence); err != nil {
			return Entry{}, fmt.Errorf("failed to decode evidence for %s on %s: %w", e.ParticipantID, e.Date, err)
		}
	}
	if e.Evidence == nil {
		e.Evidence = []stance.Evidence{}
	}
	return e, nil
}

func (r *Repository) queryEntries(ctx context.Context, query string, args ...interface{}) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}
	return out, nil
}

// Latest returns the most recent entry for a participant.
func (r *Repository) Latest(ctx context.Context, participantID string) (Entry, error) {
	return r.AsOf(ctx, participantID, "9999-12-31")
}

// AsOf returns the participant's entry closest to, but not after, date.
//
// Returns:
//   - Entry: The matching entry
//   - error: ErrNotFound if the participant has no entry on or before date
func (r *Repository) AsOf(ctx context.Context, participantID, date string) (Entry, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+entryColumns+`
		FROM stance_history
		WHERE participant_id = ? AND date <= ?
		ORDER BY date DESC
		LIMIT 1
	`, participantID, date)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s as of %s", ErrNotFound, participantID, date)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("failed to load history for %s: %w", participantID, err)
	}
	return e, nil
}

// List returns a participant's entries dated on or after since, oldest
// first. An empty since returns the whole series.
func (r *Repository) List(ctx context.Context, participantID, since string) ([]Entry, error) {
	return r.queryEntries(ctx, `
		SELECT `+entryColumns+`
		FROM stance_history
		WHERE participant_id = ? AND date >= ?
		ORDER BY date ASC
	`, participantID, since)
}

// AsOfAll returns, for every participant with history, the entry closest to
// but not after date, keyed by participant id.
func (r *Repository) AsOfAll(ctx context.Context, date string) (map[string]Entry, error) {
	entries, err := r.queryEntries(ctx, `
		SELECT `+entryColumns+`
		FROM stance_history h
		WHERE h.date = (
			SELECT MAX(date) FROM stance_history
			WHERE participant_id = h.participant_id AND date <= ?
		)
	`, date)
	if err != nil {
		return nil, err
	}

	out := make(map[string]Entry, len(entries))
	for _, e := range entries {
		out[e.ParticipantID] = e
	}
	return out, nil
}

// LatestAll returns the most recent entry of every participant.
func (r *Repository) LatestAll(ctx context.Context) (map[string]Entry, error) {
	return r.AsOfAll(ctx, "9999-12-31")
}

// SaveRun records a run summary.
func (r *Repository) SaveRun(ctx context.Context, run Run) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO tracker_runs
			(id, started_at, finished_at, participants, hawkish, neutral, dovish, lean_fallbacks, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.StartedAt.Unix(), run.FinishedAt.Unix(), run.Participants,
		run.Hawkish, run.Neutral, run.Dovish, run.LeanFallbacks, run.Failed)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return nil
}

// ListRuns returns up to limit runs, newest first.
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, participants, hawkish, neutral, dovish, lean_fallbacks, failed
		FROM tracker_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			run             Run
			started, finish int64
		)
		if err := rows.Scan(&run.ID, &started, &finish, &run.Participants, &run.Hawkish,
			&run.Neutral, &run.Dovish, &run.LeanFallbacks, &run.Failed); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.StartedAt = time.Unix(started, 0).UTC()
		run.FinishedAt = time.Unix(finish, 0).UTC()
		out = append(out, run)
	}
	return out, rows.Err()
}
