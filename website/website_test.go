package website

import (
	"bytes"
	"database/sql"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"furitingoasis/greenhouse/controller"
	"furitingoasis/greenhouse/param"
	"furitingoasis/greenhouse/relays"
)

type fakeCore struct {
	values map[string]param.Info
}

func (f *fakeCore) Snapshot() controller.Snapshot {
	var s controller.Snapshot
	s.Relays = relays.State{Direction: relays.FinishedOpen, Heater: true}
	s.Status.Inside.Temperature = 23.5
	return s
}

func (f *fakeCore) Keys() []string { return []string{"temp.setpoint", "pump"} }

func (f *fakeCore) Read(key string) (param.Info, error) {
	info, ok := f.values[key]
	if !ok {
		return param.Info{}, param.ErrUnknownKey
	}
	return info, nil
}

func (f *fakeCore) Write(key string, v any) (param.Info, error) {
	info, ok := f.values[key]
	if !ok {
		return param.Info{}, param.ErrUnknownKey
	}
	if v == "warm" {
		return param.Info{}, param.ErrType
	}
	info.Value, info.Text = v, fmt.Sprint(v)
	f.values[key] = info
	return info, nil
}

const (
	adminEmail    = "admin@example.com"
	adminPassword = "let-me-grow"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "web.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	if err := CreateTables(db); err != nil {
		t.Fatal(err)
	}
	return db
}

type testServer struct {
	*httptest.Server
	core *fakeCore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := openDB(t)

	hash, err := HashPassword(adminPassword)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := (&UserModel{DB: db}).SeedAdmin(adminEmail, hash); err != nil {
		t.Fatal(err)
	}

	core := &fakeCore{values: map[string]param.Info{
		"temp.setpoint": {Kind: param.KindFloat, Value: float32(24), Text: "24.0 C", Max: 50, Step: 0.5, Unit: "C"},
		"pump":          {Kind: param.KindBool, Value: false, Text: "OFF", Max: 1, Labels: []string{"OFF", "ON"}},
	}}
	app, err := New(Options{
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		Core:          core,
		DB:            db,
		SecureCookies: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	ts := httptest.NewTLSServer(app.Routes())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	ts.Client().Jar = jar
	ts.Client().CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &testServer{ts, core}
}

func (ts *testServer) get(t *testing.T, path string) (int, http.Header, string) {
	t.Helper()
	resp, err := ts.Client().Get(ts.URL + path)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, resp.Header, string(bytes.TrimSpace(body))
}

func (ts *testServer) postForm(t *testing.T, path string, form url.Values) (int, http.Header, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, ts.URL+path, strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", ts.URL+path)
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, resp.Header, string(body)
}

var csrfTokenRX = regexp.MustCompile(`<input type="hidden" name="csrf_token" value="(.+?)">`)

func extractCSRFToken(t *testing.T, body string) string {
	t.Helper()
	matches := csrfTokenRX.FindStringSubmatch(body)
	if len(matches) < 2 {
		t.Fatal("no csrf token found in body")
	}
	return html.UnescapeString(matches[1])
}

func (ts *testServer) login(t *testing.T, password string) (int, http.Header, string) {
	t.Helper()
	_, _, body := ts.get(t, "/user/login")
	return ts.postForm(t, "/user/login", url.Values{
		"email":      {adminEmail},
		"password":   {password},
		"csrf_token": {extractCSRFToken(t, body)},
	})
}

func TestPing(t *testing.T) {
	ts := newTestServer(t)
	code, _, body := ts.get(t, "/ping")
	if code != http.StatusOK || body != "OK" {
		t.Errorf("expected 200 OK, got %d %q", code, body)
	}
}

func TestHomeShowsStatus(t *testing.T) {
	ts := newTestServer(t)
	code, header, body := ts.get(t, "/")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	for _, want := range []string{"23.5 C", "Vent: finished-open", "Heater: on", "Pump: off", "Login"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in the status page", want)
		}
	}
	if header.Get("X-Frame-Options") != "deny" {
		t.Errorf("expected the security headers, got %v", header)
	}
}

func TestSettingsRequireLogin(t *testing.T) {
	ts := newTestServer(t)
	code, header, _ := ts.get(t, "/settings")
	if code != http.StatusSeeOther || header.Get("Location") != "/user/login" {
		t.Errorf("expected a redirect to the login page, got %d %q", code, header.Get("Location"))
	}
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name     string
		password string
		code     int
		want     string
	}{
		{"wrong password", "weeds", http.StatusUnprocessableEntity, "Email or password is incorrect"},
		{"blank password", "", http.StatusUnprocessableEntity, "This field cannot be blank"},
		{"valid", adminPassword, http.StatusSeeOther, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			code, _, body := ts.login(t, tt.password)
			if code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, code)
			}
			if !strings.Contains(body, tt.want) {
				t.Errorf("expected %q in the response", tt.want)
			}
		})
	}
}

func TestLoginNeedsCSRFToken(t *testing.T) {
	ts := newTestServer(t)
	ts.get(t, "/user/login")
	code, _, _ := ts.postForm(t, "/user/login", url.Values{
		"email":    {adminEmail},
		"password": {adminPassword},
	})
	if code != http.StatusBadRequest {
		t.Errorf("expected 400 without a csrf token, got %d", code)
	}
}

func TestSettingsWrite(t *testing.T) {
	ts := newTestServer(t)
	if code, _, _ := ts.login(t, adminPassword); code != http.StatusSeeOther {
		t.Fatalf("login failed with %d", code)
	}

	code, _, body := ts.get(t, "/settings")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if !strings.Contains(body, "temp.setpoint") || !strings.Contains(body, "<option selected>OFF</option>") {
		t.Errorf("expected every setting on the page, got %s", body)
	}
	token := extractCSRFToken(t, body)

	code, header, _ := ts.postForm(t, "/settings", url.Values{
		"key":        {"temp.setpoint"},
		"value":      {"26.5"},
		"csrf_token": {token},
	})
	if code != http.StatusSeeOther || header.Get("Location") != "/settings" {
		t.Fatalf("expected a redirect back to settings, got %d", code)
	}
	if got := ts.core.values["temp.setpoint"].Value; got != "26.5" {
		t.Errorf("expected the write to reach the core, got %v", got)
	}

	_, _, body = ts.get(t, "/settings")
	if !strings.Contains(body, "temp.setpoint is now 26.5") {
		t.Error("expected a flash message after the write")
	}

	code, _, body = ts.postForm(t, "/settings", url.Values{
		"key":        {"temp.setpoint"},
		"value":      {"warm"},
		"csrf_token": {token},
	})
	if code != http.StatusUnprocessableEntity || !strings.Contains(body, "cannot be set to") {
		t.Errorf("expected the bad value to be rejected, got %d", code)
	}

	code, _, _ = ts.postForm(t, "/settings", url.Values{
		"key":        {"fan"},
		"value":      {"1"},
		"csrf_token": {token},
	})
	if code != http.StatusNotFound {
		t.Errorf("expected 404 for an unknown setting, got %d", code)
	}
}

func TestSeedAdminOnce(t *testing.T) {
	db := openDB(t)
	m := &UserModel{DB: db}
	hash, err := HashPassword("pw")
	if err != nil {
		t.Fatal(err)
	}

	created, err := m.SeedAdmin(adminEmail, hash)
	if err != nil || !created {
		t.Fatalf("expected the admin to be created, got %v %v", created, err)
	}
	created, err = m.SeedAdmin("other@example.com", hash)
	if err != nil || created {
		t.Errorf("expected the second seed to be skipped, got %v %v", created, err)
	}
	if err := m.Insert(adminEmail, hash, false); err != ErrDuplicateEmail {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
	if err := m.Insert("plain@example.com", "not-a-hash", false); err == nil {
		t.Error("expected a plain text password to be rejected")
	}
}
