package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"storefront/internal/config"
	"storefront/internal/http/handlers"
	"storefront/internal/repos"
)

const seedPassword = "Passw0rd!"

// newTestApp wires the real routes over a seeded in-memory database.
func newTestApp(t *testing.T, tweak ...func(*config.Config)) (*fiber.App, *sqlx.DB) {
	t.Helper()
	cfg := config.Config{
		DBDSN:           ":memory:",
		TotalTolerance:  decimal.New(1, -2),
		RateLimitPerMin: 1000,
		LoginRateLimit:  100,
	}
	for _, fn := range tweak {
		fn(&cfg)
	}
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return handlers.NewApp(cfg, handlers.NewDeps(db, cfg)), db
}

// do sends a JSON request and decodes a JSON object response when there is one.
func do(t *testing.T, app *fiber.App, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rdr = strings.NewReader(b)
		default:
			raw, err := json.Marshal(b)
			if err != nil {
				t.Fatal(err)
			}
			rdr = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	raw, _ := io.ReadAll(resp.Body)
	out := map[string]any{}
	_ = json.Unmarshal(raw, &out)
	return resp, out
}

func login(t *testing.T, app *fiber.App, email string) string {
	t.Helper()
	resp, body := do(t, app, "POST", "/api/auth/local", "", map[string]string{
		"identifier": email,
		"password":   seedPassword,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status %d body=%v", email, resp.StatusCode, body)
	}
	tok, _ := body["token"].(string)
	if tok == "" {
		t.Fatalf("login %s: no token", email)
	}
	return tok
}

func dec(t *testing.T, v any) decimal.Decimal {
	t.Helper()
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case float64:
		return decimal.NewFromFloat(x)
	default:
		t.Fatalf("not a number: %#v", v)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	UserID string         `json:"user_id"`
	Err    string         `json:"err"`
	Fields map[string]any `json:"fields"`
}

type lockedWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.buf.Write(p)
}

func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	w := &lockedWriter{}
	oldW := log.Writer()
	oldFlags := log.Flags()
	log.SetOutput(w)
	log.SetFlags(0)
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(w.buf.String()), "\n") {
		var e logEntry
		if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &e); err == nil && e.Action != "" {
			entries = append(entries, e)
		}
	}
	return entries
}

func findAction(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}
