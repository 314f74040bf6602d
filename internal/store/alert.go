package store

import (
	"database/sql"
	"time"
)

// AlertRecord is a logged alert.
type AlertRecord struct {
	ID        int64     `json:"id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AlertRepository records alerts raised by the pipeline.
type AlertRepository struct {
	db *sql.DB
}

// Alerts returns the alert repository for this store.
func (s *Store) Alerts() *AlertRepository {
	return &AlertRepository{db: s.db}
}

// Record appends an alert to the log and sets its ID.
func (r *AlertRepository) Record(a *AlertRecord) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	result, err := r.db.Exec(
		`INSERT INTO alerts (kind, message, detail, created_at) VALUES (?, ?, ?, ?)`,
		a.Kind, a.Message, a.Detail, a.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = id
	return nil
}

// Recent returns up to limit alerts, newest first.
func (r *AlertRepository) Recent(limit int) ([]*AlertRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(
		`SELECT id, kind, message, detail, created_at
		 FROM alerts ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*AlertRecord
	for rows.Next() {
		a := &AlertRecord{}
		if err := rows.Scan(&a.ID, &a.Kind, &a.Message, &a.Detail, &a.CreatedAt); err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return alerts, nil
}
