// Package loader persists normalized match rows into an embedded
// DuckDB database. Each unit of work (one record, or one batch of
// records) runs inside a single transaction: inserts happen in
// dependency order with the match row before its children, a commit
// makes the whole unit visible, and any failure rolls the whole unit
// back so no partial match data ever survives.
package loader

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/jeffekeanyanwu/z-odi/normalize"
)

const (
	insertMatchSQL = `
		INSERT INTO matches (
			balls_per_over, city, dates, event_name, event_match_number,
			event_group, event_stage, gender, match_type,
			outcome_winner, outcome_by, outcome_method, outcome_result, outcome_eliminator,
			overs, player_of_match, season, team_type, team_1, team_2,
			toss_winner, toss_decision, toss_uncontested, venue, source_file
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING CAST(match_id AS VARCHAR)`

	// Insert-or-ignore: a player identity already present is never
	// overwritten by a later match (first-writer-wins).
	insertPlayerSQL = `
		INSERT INTO players (player_id, player_name, registry_id)
		VALUES (?, ?, ?)
		ON CONFLICT (player_id) DO NOTHING`

	insertMatchPlayerSQL = `
		INSERT INTO match_players (match_id, player_id, team)
		VALUES (?, ?, ?)`

	insertOfficialSQL = `
		INSERT INTO officials (match_id, official_name, role)
		VALUES (?, ?, ?)`

	insertDeliverySQL = `
		INSERT INTO innings (
			match_id, innings_number, team, over, ball,
			batter, bowler, non_striker,
			runs_batter, runs_extras, runs_total, runs_non_boundary,
			extras_byes, extras_legbyes, extras_noballs, extras_penalty, extras_wides,
			wicket_type, player_out, fielders,
			declared, forfeited, super_over
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
)

// Loader writes normalized records to DuckDB over a single connection.
// It is not safe for concurrent use; callers drive it from one
// goroutine and each unit of work runs to completion before the next.
type Loader struct {
	db     *sql.DB
	logger *zap.Logger
	path   string
}

// Open opens (creating if necessary) the DuckDB database at path.
// Failure here is fatal to the run.
func Open(path string, logger *zap.Logger) (*Loader, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB at %s: %w", path, err)
	}

	// DuckDB doesn't handle concurrent writes well - use single connection
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping DuckDB at %s: %w", path, err)
	}

	logger.Info("opened DuckDB database", zap.String("path", path))
	return &Loader{db: db, logger: logger, path: path}, nil
}

// Close closes the underlying database.
func (l *Loader) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

// LoadOne persists one normalized record in its own transaction and
// returns the store-assigned match id. On any insert failure the
// transaction is rolled back and nothing from the record is visible.
func (l *Loader) LoadOne(ctx context.Context, rows *normalize.Rows) (string, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	matchID, err := insertRecord(ctx, tx, rows)
	if err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit record from %s: %w", rows.SourceFile, err)
	}

	l.logger.Debug("record loaded",
		zap.String("match_id", matchID),
		zap.String("source_file", rows.SourceFile),
		zap.Int("deliveries", len(rows.Deliveries)))
	return matchID, nil
}

// LoadBatch persists a group of records inside one shared transaction
// for throughput. The batch is all-or-nothing: a single record's
// failure rolls back every record in the batch and the success count
// is zero.
func (l *Loader) LoadBatch(ctx context.Context, batch []*normalize.Rows) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, rows := range batch {
		if _, err := insertRecord(ctx, tx, rows); err != nil {
			l.logger.Warn("record failed, rolling back batch",
				zap.String("source_file", rows.SourceFile),
				zap.Int("batch_size", len(batch)),
				zap.Error(err))
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit batch of %d records: %w", len(batch), err)
	}
	return len(batch), nil
}

// insertRecord writes all rows for one record inside tx, parent before
// child: the match row first (capturing the generated id), then
// players, match_players, officials, and finally the delivery rows.
func insertRecord(ctx context.Context, tx *sql.Tx, rows *normalize.Rows) (string, error) {
	m := &rows.Match
	var matchID string
	err := tx.QueryRowContext(ctx, insertMatchSQL,
		m.BallsPerOver, m.City, m.Dates, m.EventName, m.EventMatchNumber,
		m.EventGroup, m.EventStage, m.Gender, m.MatchType,
		m.OutcomeWinner, m.OutcomeBy, m.OutcomeMethod, m.OutcomeResult, m.OutcomeEliminator,
		m.Overs, m.PlayerOfMatch, m.Season, m.TeamType, m.Team1, m.Team2,
		m.TossWinner, m.TossDecision, m.TossUncontested, m.Venue, rows.SourceFile,
	).Scan(&matchID)
	if err != nil {
		return "", fmt.Errorf("failed to insert match from %s: %w", rows.SourceFile, err)
	}

	for _, p := range rows.Players {
		if _, err := tx.ExecContext(ctx, insertPlayerSQL, p.ID, p.Name, p.RegistryID); err != nil {
			return "", fmt.Errorf("failed to insert player %q: %w", p.ID, err)
		}
	}
	for _, mp := range rows.MatchPlayers {
		if _, err := tx.ExecContext(ctx, insertMatchPlayerSQL, matchID, mp.PlayerID, mp.Team); err != nil {
			return "", fmt.Errorf("failed to insert match player %q: %w", mp.PlayerID, err)
		}
	}
	for _, o := range rows.Officials {
		if _, err := tx.ExecContext(ctx, insertOfficialSQL, matchID, o.Name, o.Role); err != nil {
			return "", fmt.Errorf("failed to insert official %q: %w", o.Name, err)
		}
	}

	if len(rows.Deliveries) > 0 {
		stmt, err := tx.PrepareContext(ctx, insertDeliverySQL)
		if err != nil {
			return "", fmt.Errorf("failed to prepare delivery insert: %w", err)
		}
		defer stmt.Close()

		for _, d := range rows.Deliveries {
			_, err := stmt.ExecContext(ctx,
				matchID, d.InningsNumber, d.Team, d.Over, d.Ball,
				d.Batter, d.Bowler, d.NonStriker,
				d.RunsBatter, d.RunsExtras, d.RunsTotal, d.RunsNonBoundary,
				d.ExtrasByes, d.ExtrasLegbyes, d.ExtrasNoballs, d.ExtrasPenalty, d.ExtrasWides,
				d.WicketKind, d.PlayerOut, d.Fielders,
				d.Declared, d.Forfeited, d.SuperOver)
			if err != nil {
				return "", fmt.Errorf("failed to insert delivery (innings %d, over %d, ball %d): %w",
					d.InningsNumber, d.Over, d.Ball, err)
			}
		}
	}

	return matchID, nil
}
