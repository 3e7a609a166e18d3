package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"portfolio-site/internal/content"
)

func seedSite(t *testing.T, env *testEnv) {
	t.Helper()
	p := content.Defaults()
	p.Categories = append(p.Categories, content.Category{Name: "Photography", Slug: "photography"})
	p.Items = []content.PortfolioItem{{
		Title:       "Harbour at Dawn",
		Subtitle:    "Landscape series",
		Image:       "portfolio/harbour.jpg",
		DateCreated: "2024-05-01",
		Categories:  []string{"photography"},
		Featured:    true,
	}}
	if _, err := env.db.Seed(context.Background(), p); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
}

func TestHome(t *testing.T) {
	env := newTestEnv(t)
	seedSite(t, env)

	w := httptest.NewRecorder()
	env.h.Home(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}

	body := w.Body.String()
	for _, want := range []string{
		"Portfolio Owner",
		"Web Development",
		"Harbour at Dawn",
		`class="portfolio-item photography featured"`,
		`<source type="image/webp" srcset="/images/portfolio/harbour-300w.webp 300w, /images/portfolio/harbour-600w.webp 600w"`,
		`src="/images/portfolio/harbour.jpg"`,
		"Senior Web Developer",
		"&copy; " + strconv.Itoa(time.Now().Year()),
		`<span class="count">150</span>`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("home page missing %q", want)
		}
	}
}

func TestHomeEmptyDatabase(t *testing.T) {
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	env.h.Home(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "No projects yet.") {
		t.Error("empty portfolio should render the placeholder")
	}
}

func TestHomeDatabaseError(t *testing.T) {
	env := newTestEnv(t)
	env.db.Close()

	w := httptest.NewRecorder()
	env.h.Home(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Something went wrong") {
		t.Error("expected the 500 page")
	}
}

func TestBlog(t *testing.T) {
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	env.h.Blog(w, httptest.NewRequest(http.MethodGet, "/blog", nil))

	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "<h1>Blog</h1>") {
		t.Errorf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestTemplateOverride(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, filepath.Join(cfg.SiteDir, "templates", "blog.html"),
		[]byte(`{{define "content"}}<p>Custom blog {{image_url "a.png" 300}} {{webp_url "a.png"}}</p>{{end}}`))
	env := newTestEnvWith(t, cfg)

	w := httptest.NewRecorder()
	env.h.Blog(w, httptest.NewRequest(http.MethodGet, "/blog", nil))

	want := "<p>Custom blog /images/a-300w.png /images/a.webp</p>"
	if !strings.Contains(w.Body.String(), want) {
		t.Errorf("body missing %q:\n%s", want, w.Body.String())
	}
}

func TestLoadPagesBrokenOverride(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "templates", "index.html"), []byte(`{{define "content"}}{{.Nope`))

	if _, err := LoadPages(dir, nil); err == nil {
		t.Error("LoadPages() expected parse error")
	}
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name     string
		path     string
		accept   string
		wantJSON bool
	}{
		{"page", "/missing", "text/html", false},
		{"api", "/api/missing", "", true},
		{"json client", "/missing", "application/json", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			w := httptest.NewRecorder()
			env.h.NotFound(w, req)

			if w.Code != http.StatusNotFound {
				t.Fatalf("status = %d, want 404", w.Code)
			}
			isJSON := strings.HasPrefix(w.Header().Get("Content-Type"), "application/json")
			if isJSON != tt.wantJSON {
				t.Errorf("JSON = %v, want %v", isJSON, tt.wantJSON)
			}
			if !tt.wantJSON && !strings.Contains(w.Body.String(), "404") {
				t.Error("expected the 404 page")
			}
		})
	}
}

func TestTemplateFuncs(t *testing.T) {
	funcs := templateFuncs([]int{300, 600})

	srcset := funcs["srcset"].(func(string, ...string) string)
	if got := srcset("x.png", "webp"); got != "/images/x-300w.webp 300w, /images/x-600w.webp 600w" {
		t.Errorf("srcset = %q", got)
	}

	year := funcs["current_year"].(func() int)
	if year() != time.Now().Year() {
		t.Errorf("current_year = %d", year())
	}
}
