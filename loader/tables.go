package loader

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// DDL for the five destination tables. Match ids are store-assigned
// UUIDs; innings rows take a sequential id with no natural uniqueness
// beyond it. List-shaped source fields (dates, player_of_match,
// fielders) are stored as JSON text.
var tableDDL = []string{
	`CREATE TABLE IF NOT EXISTS matches (
		match_id UUID PRIMARY KEY DEFAULT uuid(),
		balls_per_over INTEGER DEFAULT 6,
		city VARCHAR,
		dates JSON NOT NULL,
		event_name VARCHAR,
		event_match_number INTEGER,
		event_group VARCHAR,
		event_stage VARCHAR,
		gender VARCHAR NOT NULL,
		match_type VARCHAR NOT NULL,
		outcome_winner VARCHAR,
		outcome_by JSON,
		outcome_method VARCHAR,
		outcome_result VARCHAR,
		outcome_eliminator VARCHAR,
		overs INTEGER,
		player_of_match JSON,
		season VARCHAR NOT NULL,
		team_type VARCHAR NOT NULL,
		team_1 VARCHAR NOT NULL,
		team_2 VARCHAR NOT NULL,
		toss_winner VARCHAR NOT NULL,
		toss_decision VARCHAR NOT NULL,
		toss_uncontested BOOLEAN DEFAULT FALSE,
		venue VARCHAR,
		source_file VARCHAR,
		inserted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE SEQUENCE IF NOT EXISTS innings_id_seq`,

	`CREATE TABLE IF NOT EXISTS innings (
		innings_id INTEGER PRIMARY KEY DEFAULT nextval('innings_id_seq'),
		match_id UUID NOT NULL,
		innings_number INTEGER NOT NULL,
		team VARCHAR NOT NULL,
		over INTEGER NOT NULL,
		ball INTEGER NOT NULL,
		batter VARCHAR NOT NULL,
		bowler VARCHAR NOT NULL,
		non_striker VARCHAR NOT NULL,
		runs_batter INTEGER DEFAULT 0,
		runs_extras INTEGER DEFAULT 0,
		runs_total INTEGER DEFAULT 0,
		runs_non_boundary BOOLEAN DEFAULT FALSE,
		extras_byes INTEGER,
		extras_legbyes INTEGER,
		extras_noballs INTEGER,
		extras_penalty INTEGER,
		extras_wides INTEGER,
		wicket_type VARCHAR,
		player_out VARCHAR,
		fielders JSON,
		declared BOOLEAN DEFAULT FALSE,
		forfeited BOOLEAN DEFAULT FALSE,
		super_over BOOLEAN DEFAULT FALSE,
		inserted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (match_id) REFERENCES matches(match_id)
	)`,

	`CREATE TABLE IF NOT EXISTS players (
		player_id VARCHAR PRIMARY KEY,
		player_name VARCHAR NOT NULL,
		registry_id VARCHAR,
		inserted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS match_players (
		match_id UUID NOT NULL,
		player_id VARCHAR NOT NULL,
		team VARCHAR NOT NULL,
		inserted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (match_id, player_id),
		FOREIGN KEY (match_id) REFERENCES matches(match_id),
		FOREIGN KEY (player_id) REFERENCES players(player_id)
	)`,

	`CREATE TABLE IF NOT EXISTS officials (
		match_id UUID NOT NULL,
		official_name VARCHAR NOT NULL,
		role VARCHAR NOT NULL,
		inserted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (match_id, official_name, role),
		FOREIGN KEY (match_id) REFERENCES matches(match_id)
	)`,
}

// InitSchema creates the destination tables if they do not exist.
// Safe to call on every startup.
func (l *Loader) InitSchema(ctx context.Context) error {
	for _, ddl := range tableDDL {
		if _, err := l.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	l.logger.Info("database schema ready", zap.String("path", l.path))
	return nil
}
