package history

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const (
	insertEntrySQL = `
		INSERT INTO match_history (room_code, kind, event, players, winner, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	recentEntriesSQL = `
		SELECT room_code, kind, event, players, winner, occurred_at
		FROM match_history
		ORDER BY occurred_at DESC, id DESC
		LIMIT $1
	`
)

// Postgres writes entries through a single background worker so callers on
// the engine loop never wait on the database.
type Postgres struct {
	pool    *pgxpool.Pool
	entries chan Entry
	logger  zerolog.Logger
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewPostgres migrates the schema, opens a pool and starts the writer.
func NewPostgres(ctx context.Context, databaseURL string, logger zerolog.Logger) (*Postgres, error) {
	logger = logger.With().Str("component", "history").Logger()

	if err := Migrate(databaseURL, logger); err != nil {
		return nil, err
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	config.MaxConns = 4
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	p := &Postgres{
		pool:    pool,
		entries: make(chan Entry, 256),
		logger:  logger,
	}

	p.wg.Add(1)
	go p.writeLoop()

	return p, nil
}

// Record queues entry for insertion. Entries are dropped when the queue is
// full or the store is closed.
func (p *Postgres) Record(entry Entry) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return
	}

	select {
	case p.entries <- entry:
	default:
		p.logger.Warn().Str("room", entry.RoomCode).Str("event", string(entry.Event)).Msg("History queue full, entry dropped")
	}
}

func (p *Postgres) writeLoop() {
	defer p.wg.Done()

	for entry := range p.entries {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := p.insert(ctx, entry); err != nil {
			p.logger.Error().Err(err).Str("room", entry.RoomCode).Msg("Failed to record history entry")
		}
		cancel()
	}
}

func (p *Postgres) insert(ctx context.Context, entry Entry) error {
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now()
	}
	players := entry.Players
	if players == nil {
		players = []string{}
	}

	_, err := p.pool.Exec(ctx, insertEntrySQL,
		entry.RoomCode,
		entry.Kind,
		string(entry.Event),
		players,
		entry.Winner,
		entry.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert history for %s: %w", entry.RoomCode, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (p *Postgres) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := p.pool.Query(ctx, recentEntriesSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			entry Entry
			event string
		)
		if err := rows.Scan(&entry.RoomCode, &entry.Kind, &event, &entry.Players, &entry.Winner, &entry.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		entry.Event = Event(event)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history rows: %w", err)
	}

	return entries, nil
}

// Close flushes queued entries and closes the pool.
func (p *Postgres) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.entries)
	p.mu.Unlock()

	p.wg.Wait()
	p.pool.Close()
	return nil
}
