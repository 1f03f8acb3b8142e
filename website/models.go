package website

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("website: invalid credentials")
	ErrDuplicateEmail     = errors.New("website: duplicate email")
)

// CreateTables creates the session and user tables if they are missing.
func CreateTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			token CHAR(43) PRIMARY KEY,
			data BLOB NOT NULL,
			expiry TIMESTAMP(6) NOT NULL
		);
		CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions (expiry);
		CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email VARCHAR(255) NOT NULL UNIQUE,
			password CHAR(60) NOT NULL,
			admin INTEGER DEFAULT 0,
			created DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("create web tables: %w", err)
	}
	return nil
}

type UserModelInterface interface {
	Authenticate(email, password string) (int, error)
	Exists(id int) (bool, error)
}

type UserModel struct {
	DB *sql.DB
}

// Insert adds a user with an already hashed password.
func (m *UserModel) Insert(email, hash string, admin bool) error {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return fmt.Errorf("password hash for %s: %w", email, err)
	}
	_, err := m.DB.Exec(`INSERT INTO users (email, password, admin, created) VALUES (?, ?, ?, ?)`,
		strings.ToLower(email), hash, admin, time.Now().UTC())
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// SeedAdmin creates the admin account unless one exists already.
func (m *UserModel) SeedAdmin(email, hash string) (bool, error) {
	var id int
	err := m.DB.QueryRow(`SELECT id FROM users WHERE admin = 1 LIMIT 1`).Scan(&id)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("check for existing admin: %w", err)
	}
	if err := m.Insert(email, hash, true); err != nil {
		return false, err
	}
	return true, nil
}

func (m *UserModel) Authenticate(email, password string) (int, error) {
	var id int
	var hash []byte
	err := m.DB.QueryRow(`SELECT id, password FROM users WHERE email = ?`, strings.ToLower(email)).Scan(&id, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrInvalidCredentials
		}
		return 0, err
	}

	err = bcrypt.CompareHashAndPassword(hash, []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return 0, ErrInvalidCredentials
		}
		return 0, err
	}
	return id, nil
}

func (m *UserModel) Exists(id int) (bool, error) {
	var exists bool
	err := m.DB.QueryRow(`SELECT EXISTS(SELECT true FROM users WHERE id = ?)`, id).Scan(&exists)
	return exists, err
}

// HashPassword returns the bcrypt hash stored in the admin config.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
