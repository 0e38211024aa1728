package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS games (
	id            BIGSERIAL PRIMARY KEY,
	user_id       TEXT        NOT NULL,
	pgn           TEXT        NOT NULL DEFAULT '',
	moves         TEXT[]      NOT NULL DEFAULT '{}',
	result        TEXT        NOT NULL,
	difficulty    TEXT        NOT NULL DEFAULT '',
	player_color  TEXT        NOT NULL DEFAULT '',
	duration_ms   BIGINT      NOT NULL DEFAULT 0,
	fen           TEXT        NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS games_user_created ON games (user_id, created_at DESC);
CREATE TABLE IF NOT EXISTS user_stats (
	user_id      TEXT PRIMARY KEY,
	total_games  INT NOT NULL,
	wins         INT NOT NULL,
	losses       INT NOT NULL,
	draws        INT NOT NULL,
	rating       INT NOT NULL
);
`

// Postgres is a Sink backed by PostgreSQL through lib/pq.
type Postgres struct {
	db *sql.DB
}

// OpenPostgres connects to dsn, checks the connection and creates the
// tables if needed.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db.Ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) SaveGame(ctx context.Context, userID string, g GameSummary) (Game, error) {
	if err := validate(userID, g); err != nil {
		return Game{}, err
	}
	// One transaction for the game row and the stats update
	tx, err := p.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return Game{}, err
	}
	defer tx.Rollback()

	if g.Moves == nil {
		g.Moves = []string{}
	}
	game := Game{UserID: userID, GameSummary: g}
	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO games (user_id, pgn, moves, result, difficulty, player_color, duration_ms, fen)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`,
		userID,
		g.PGN,
		pq.Array(g.Moves),
		string(g.Result),
		g.Difficulty,
		g.PlayerColor,
		g.Duration.Milliseconds(),
		g.FEN,
	).Scan(&id, &game.CreatedAt)
	if err != nil {
		return Game{}, fmt.Errorf("insert game: %w", err)
	}
	game.ID = strconv.FormatInt(id, 10)

	st, err := scanStats(tx.QueryRowContext(ctx, `
		SELECT total_games, wins, losses, draws, rating
		FROM user_stats
		WHERE user_id = $1
		FOR UPDATE
	`, userID))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		st = NewStats()
	case err != nil:
		return Game{}, fmt.Errorf("load stats: %w", err)
	}
	st = st.Record(g.Result)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO user_stats (user_id, total_games, wins, losses, draws, rating)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			total_games = EXCLUDED.total_games,
			wins        = EXCLUDED.wins,
			losses      = EXCLUDED.losses,
			draws       = EXCLUDED.draws,
			rating      = EXCLUDED.rating
	`, userID, st.TotalGames, st.Wins, st.Losses, st.Draws, st.Rating)
	if err != nil {
		return Game{}, fmt.Errorf("upsert stats: %w", err)
	}
	return game, tx.Commit()
}

func (p *Postgres) UserGames(ctx context.Context, userID string, limit int) ([]Game, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, pgn, moves, result, difficulty, player_color, duration_ms, fen, created_at
		FROM games
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Game
	for rows.Next() {
		g := Game{UserID: userID}
		var id, durationMS int64
		var result string
		if err := rows.Scan(
			&id,
			&g.PGN,
			pq.Array(&g.Moves),
			&result,
			&g.Difficulty,
			&g.PlayerColor,
			&durationMS,
			&g.FEN,
			&g.CreatedAt,
		); err != nil {
			return nil, err
		}
		g.ID = strconv.FormatInt(id, 10)
		g.Result = Outcome(result)
		g.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, g)
	}
	return out, rows.Err()
}

func (p *Postgres) Stats(ctx context.Context, userID string) (Stats, error) {
	st, err := scanStats(p.db.QueryRowContext(ctx, `
		SELECT total_games, wins, losses, draws, rating
		FROM user_stats
		WHERE user_id = $1
	`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return Stats{}, ErrNotFound
	}
	return st, err
}

func (p *Postgres) Leaderboard(ctx context.Context, limit int) ([]Standing, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT user_id, total_games, wins, losses, draws, rating
		FROM user_stats
		ORDER BY rating DESC, user_id ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Standing
	for rows.Next() {
		var s Standing
		if err := rows.Scan(&s.UserID, &s.TotalGames, &s.Wins, &s.Losses, &s.Draws, &s.Rating); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

func scanStats(row *sql.Row) (Stats, error) {
	var st Stats
	err := row.Scan(&st.TotalGames, &st.Wins, &st.Losses, &st.Draws, &st.Rating)
	return st, err
}
