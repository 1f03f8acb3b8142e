// Package website is the HTML front end: a status page, and a settings page
// for the admin behind a session login.
package website

import (
	"database/sql"
	"html/template"
	"log/slog"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/go-playground/form/v4"

	"furitingoasis/greenhouse/controller"
	"furitingoasis/greenhouse/param"
)

// Core is the part of the controller the pages use.
type Core interface {
	Snapshot() controller.Snapshot
	Keys() []string
	Read(key string) (param.Info, error)
	Write(key string, v any) (param.Info, error)
}

type Application struct {
	logger         *slog.Logger
	core           Core
	users          UserModelInterface
	templateCache  map[string]*template.Template
	formDecoder    *form.Decoder
	sessionManager *scs.SessionManager
}

type Options struct {
	Logger *slog.Logger
	Core   Core
	// DB holds the sessions and users tables; CreateTables must have run.
	DB *sql.DB
	// SecureCookies marks the session cookie Secure. Leave it off when the
	// site is served over plain http on the local network.
	SecureCookies bool
}

func New(opts Options) (*Application, error) {
	templateCache, err := newTemplateCache()
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sessionManager := scs.New()
	sessionManager.Store = sqlite3store.New(opts.DB)
	sessionManager.Lifetime = 12 * time.Hour
	sessionManager.Cookie.Secure = opts.SecureCookies

	return &Application{
		logger:         logger,
		core:           opts.Core,
		users:          &UserModel{DB: opts.DB},
		templateCache:  templateCache,
		formDecoder:    form.NewDecoder(),
		sessionManager: sessionManager,
	}, nil
}
