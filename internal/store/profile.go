package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/handput/internal/config"
)

// activeProfileKey is the settings key holding the active profile's ID.
const activeProfileKey = "active_profile"

// Profile is a named tuning.
type Profile struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Tuning    config.Tuning `json:"tuning"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// ProfileRepository provides CRUD operations for tuning profiles.
type ProfileRepository struct {
	db *sql.DB
}

// Profiles returns the profile repository for this store.
func (s *Store) Profiles() *ProfileRepository {
	return &ProfileRepository{db: s.db}
}

// Create validates and inserts a profile. An empty ID is filled with a new UUID.
func (r *ProfileRepository) Create(p *Profile) error {
	if p.Name == "" {
		return errors.New("profile name is required")
	}
	data, err := encodeTuning(p.Tuning)
	if err != nil {
		return err
	}

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err = r.db.Exec(
		`INSERT INTO tuning_profiles (id, name, data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, data, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

// GetByID retrieves a profile by its ID.
func (r *ProfileRepository) GetByID(id string) (*Profile, error) {
	return r.scanOne(r.db.QueryRow(
		`SELECT id, name, data, created_at, updated_at
		 FROM tuning_profiles WHERE id = ?`,
		id,
	))
}

// GetByName retrieves a profile by its name.
func (r *ProfileRepository) GetByName(name string) (*Profile, error) {
	return r.scanOne(r.db.QueryRow(
		`SELECT id, name, data, created_at, updated_at
		 FROM tuning_profiles WHERE name = ?`,
		name,
	))
}

// List retrieves all profiles ordered by name.
func (r *ProfileRepository) List() ([]*Profile, error) {
	rows, err := r.db.Query(
		`SELECT id, name, data, created_at, updated_at
		 FROM tuning_profiles ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return profiles, nil
}

// Update replaces a profile's name and tuning.
func (r *ProfileRepository) Update(p *Profile) error {
	data, err := encodeTuning(p.Tuning)
	if err != nil {
		return err
	}
	p.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE tuning_profiles SET name = ?, data = ?, updated_at = ? WHERE id = ?`,
		p.Name, data, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a profile by its ID. Deleting the active profile clears
// the selection.
func (r *ProfileRepository) Delete(id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(`DELETE FROM tuning_profiles WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(`DELETE FROM settings WHERE key = ? AND value = ?`, activeProfileKey, id); err != nil {
		return err
	}

	return tx.Commit()
}

// SetActive marks the profile with the given ID as active.
func (r *ProfileRepository) SetActive(id string) error {
	if _, err := r.GetByID(id); err != nil {
		return err
	}
	return setSetting(r.db, activeProfileKey, id)
}

// Active returns the active profile, or ErrNotFound when none is selected.
func (r *ProfileRepository) Active() (*Profile, error) {
	id, err := getSetting(r.db, activeProfileKey)
	if err != nil {
		return nil, err
	}
	return r.GetByID(id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *ProfileRepository) scanOne(row *sql.Row) (*Profile, error) {
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func scanProfile(row rowScanner) (*Profile, error) {
	p := &Profile{}
	var data string

	if err := row.Scan(&p.ID, &p.Name, &data, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}

	t, err := config.Parse([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", p.ID, err)
	}
	p.Tuning = t
	return p, nil
}

func encodeTuning(t config.Tuning) (string, error) {
	if err := t.Validate(); err != nil {
		return "", fmt.Errorf("invalid tuning: %w", err)
	}
	data, err := t.Marshal()
	if err != nil {
		return "", err
	}
	return string(data), nil
}
