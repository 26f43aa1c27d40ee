package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"bricpa/internal/advisory"
	"bricpa/internal/config"
	"bricpa/internal/http/handlers"
	"bricpa/internal/photos"
	"bricpa/internal/repos"
	"bricpa/internal/store"
)

type fakeGen struct {
	text string
	err  error
}

func (f fakeGen) Name() string { return "fake" }
func (f fakeGen) Generate(context.Context, string, string, []advisory.Image) (string, error) {
	return f.text, f.err
}

type testApp struct {
	app      *fiber.App
	requests *repos.RequestRepo
	quotes   *repos.QuoteRepo
	photos   photos.Store
}

func newTestApp(t *testing.T, gen advisory.Generator) *testApp {
	t.Helper()
	cfg := config.Defaults()
	cfg.DataDir = t.TempDir()

	b, err := store.NewFileBackend(cfg.DataDir)
	if err != nil {
		t.Fatal(err)
	}
	st := store.New(b)
	if err := repos.RegisterSchemas(st); err != nil {
		t.Fatal(err)
	}
	db, err := repos.OpenSessionDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	ph, err := photos.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	app := fiber.New(fiber.Config{
		Views:        handlers.NewEngine("../../web/templates"),
		ErrorHandler: handlers.ErrorHandler,
		BodyLimit:    cfg.MaxUpload,
	})
	app.Use(requestid.New())
	app.Use(limiter.New(limiter.Config{Max: 1000, Expiration: 0}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		ContextKey:     "csrf",
		ErrorHandler:   handlers.CSRFError,
	}))
	app.Use(handlers.CSRFLocals)

	deps := handlers.NewDeps(st, db, ph, advisory.New(gen, 0), cfg)
	deps.Mount(app)
	app.Use(handlers.NotFound)

	return &testApp{
		app:      app,
		requests: repos.NewRequestRepo(st),
		quotes:   repos.NewQuoteRepo(st),
		photos:   ph,
	}
}

// browser keeps the cookies of one visitor across requests.
type browser struct {
	t       *testing.T
	app     *fiber.App
	cookies map[string]string
}

func (ta *testApp) browser(t *testing.T) *browser {
	return &browser{t: t, app: ta.app, cookies: map[string]string{}}
}

type result struct {
	status   int
	location string
	body     string
}

func (b *browser) do(req *http.Request) result {
	b.t.Helper()
	for name, v := range b.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: v})
	}
	resp, err := b.app.Test(req, -1)
	if err != nil {
		b.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	for _, c := range resp.Cookies() {
		b.cookies[c.Name] = c.Value
	}
	body, _ := io.ReadAll(resp.Body)
	return result{status: resp.StatusCode, location: resp.Header.Get("Location"), body: string(body)}
}

func (b *browser) get(path string) result {
	b.t.Helper()
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

// post sends an urlencoded form carrying the csrf token, fetching one first
// if the browser has none yet.
func (b *browser) post(path string, form url.Values) result {
	b.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	form.Set("csrf", b.csrf())
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) postMultipart(path string, fields map[string]string, files [][]byte) result {
	b.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("csrf", b.csrf())
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	for i, data := range files {
		fw, err := w.CreateFormFile("photos", "photo"+string(rune('a'+i))+".jpg")
		if err != nil {
			b.t.Fatal(err)
		}
		_, _ = fw.Write(data)
	}
	_ = w.Close()
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return b.do(req)
}

func (b *browser) csrf() string {
	b.t.Helper()
	if tok := b.cookies["csrf_"]; tok != "" {
		return tok
	}
	b.get("/")
	tok := b.cookies["csrf_"]
	if tok == "" {
		b.t.Fatal("csrf token missing")
	}
	return tok
}

func expectRedirect(t *testing.T, r result, want string) {
	t.Helper()
	if r.status != fiber.StatusFound || r.location != want {
		t.Fatalf("want redirect to %q, got %d %q body=%s", want, r.status, r.location, r.body)
	}
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	UserID string         `json:"user_id"`
	Fields map[string]any `json:"fields"`
}

type lockedBuf struct {
	b  *bytes.Buffer
	mu *sync.Mutex
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf bytes.Buffer
	var mu sync.Mutex
	oldW := log.Writer()
	oldFlags := log.Flags()
	log.SetOutput(&lockedBuf{b: &buf, mu: &mu})
	log.SetFlags(0)
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}
