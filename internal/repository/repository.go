package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"webhookd/internal/models"
	"webhookd/internal/service"

	"github.com/mattn/go-sqlite3"
)

type SQLiteRepo struct {
	db *sql.DB
}

// NewSQLiteRepo opens (or creates) the message log at path and applies the
// schema. Safe to call on every process start; existing data is untouched.
func NewSQLiteRepo(path string) (*SQLiteRepo, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite supports one writer at a time; a single pooled connection
	// avoids SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	createTableQuery := `
	CREATE TABLE IF NOT EXISTS messages (
		message_id TEXT PRIMARY KEY,
		from_msisdn TEXT NOT NULL,
		to_msisdn TEXT NOT NULL,
		ts TEXT NOT NULL,
		text TEXT,
		created_at TEXT NOT NULL
	);
	`
	if _, err := db.Exec(createTableQuery); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure messages table exists: %w", err)
	}
	return &SQLiteRepo{db: db}, nil
}

var _ service.MessageRepository = (*SQLiteRepo)(nil)

func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// InsertMessage appends one message. A primary-key collision on message_id is
// reported as service.ErrDuplicateMessage; every other failure is surfaced.
func (r *SQLiteRepo) InsertMessage(msg models.Message) error {
	query := `INSERT INTO messages (message_id, from_msisdn, to_msisdn, ts, text, created_at)
	          VALUES (?, ?, ?, ?, ?, ?);`
	_, err := r.db.Exec(query, msg.MessageID, msg.From, msg.To, msg.Ts, msg.Text, msg.CreatedAt)
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return service.ErrDuplicateMessage
	}
	return err
}

// QueryMessages returns one page of the log plus the total count matching the
// filters. Ordering is (ts, message_id) ascending so pagination stays
// deterministic when timestamps collide.
func (r *SQLiteRepo) QueryMessages(filter service.QueryFilter) ([]models.Message, int, error) {
	var conditions []string
	var params []any
	if filter.From != "" {
		conditions = append(conditions, "from_msisdn = ?")
		params = append(params, filter.From)
	}
	if filter.Since != "" {
		conditions = append(conditions, "ts >= ?")
		params = append(params, filter.Since)
	}
	if filter.Q != "" {
		conditions = append(conditions, "text LIKE ?")
		params = append(params, "%"+filter.Q+"%")
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM messages"+where, params...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT message_id, from_msisdn, to_msisdn, ts, text FROM messages` + where +
		` ORDER BY ts ASC, message_id ASC LIMIT ? OFFSET ?;`
	rows, err := r.db.Query(query, append(params, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	results := []models.Message{}
	for rows.Next() {
		var msg models.Message
		var text sql.NullString
		if err := rows.Scan(&msg.MessageID, &msg.From, &msg.To, &msg.Ts, &text); err != nil {
			return nil, 0, err
		}
		if text.Valid {
			textVal := text.String
			msg.Text = &textVal
		}
		results = append(results, msg)
	}
	return results, total, rows.Err()
}

// Stats aggregates the whole log: totals, the top senders by message count
// (ties broken by sender value), and the ts bounds.
func (r *SQLiteRepo) Stats(topSenders int) (models.StatsSummary, error) {
	summary := models.StatsSummary{PerSender: []models.SenderCount{}}

	totalsQuery := `SELECT COUNT(*), COUNT(DISTINCT from_msisdn) FROM messages;`
	if err := r.db.QueryRow(totalsQuery).Scan(&summary.TotalMessages, &summary.SendersCount); err != nil {
		return summary, err
	}

	perSenderQuery := `SELECT from_msisdn, COUNT(*) AS count FROM messages
	                   GROUP BY from_msisdn
	                   ORDER BY count DESC, from_msisdn ASC
	                   LIMIT ?;`
	rows, err := r.db.Query(perSenderQuery, topSenders)
	if err != nil {
		return summary, err
	}
	defer rows.Close()
	for rows.Next() {
		var sc models.SenderCount
		if err := rows.Scan(&sc.From, &sc.Count); err != nil {
			return summary, err
		}
		summary.PerSender = append(summary.PerSender, sc)
	}
	if err := rows.Err(); err != nil {
		return summary, err
	}

	var first, last sql.NullString
	if err := r.db.QueryRow(`SELECT MIN(ts), MAX(ts) FROM messages;`).Scan(&first, &last); err != nil {
		return summary, err
	}
	if first.Valid {
		firstVal := first.String
		summary.FirstMessageTs = &firstVal
	}
	if last.Valid {
		lastVal := last.String
		summary.LastMessageTs = &lastVal
	}
	return summary, nil
}

// Ping runs a trivial query for the readiness probe.
func (r *SQLiteRepo) Ping() error {
	var one int
	return r.db.QueryRow("SELECT 1").Scan(&one)
}
