package content

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Web Development": "web-development",
		"UI/UX Design":    "ui-ux-design",
		"  Mobile App! ":  "mobile-app",
		"Branding":        "branding",
	}
	for in, want := range tests {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDefaultsAreValid(t *testing.T) {
	p := Defaults()
	if err := p.Validate(); err != nil {
		t.Fatalf("Defaults().Validate() = %v", err)
	}
	if *p.Stats != DefaultStats {
		t.Errorf("Stats = %+v, want %+v", *p.Stats, DefaultStats)
	}
	if p.Categories[1].Slug != "ui-ux-design" {
		t.Errorf("category slug = %q, want ui-ux-design", p.Categories[1].Slug)
	}
	for i := 1; i < len(p.Skills); i++ {
		if p.Skills[i-1].Order > p.Skills[i].Order {
			t.Fatalf("skills not in display order: %+v", p.Skills)
		}
	}
}

const sampleYAML = `
about:
  name: Ada
  title: Engineer
  description: Builds things.
  email: ada@example.com
  phone: "123"
  location: London
  freelance_status: Busy
stats:
  projects_completed: 3
  happy_clients: 2
  hours_worked: 10
  awards_won: 1
skills:
  - {name: Go, percentage: 90, order: 2}
  - {name: SQL, percentage: 70, order: 1}
categories:
  - name: Web Development
portfolio:
  - title: Old
    subtitle: first
    image: portfolio/old.jpg
    categories: [Web Development]
    date_created: "2020-01-01"
    order: 1
  - title: New
    subtitle: second
    image: portfolio/new.jpg
    categories: [web-development]
    date_created: "2023-06-01"
    order: 1
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if p.About == nil || p.About.Name != "Ada" {
		t.Errorf("About = %+v", p.About)
	}
	if p.Skills[0].Name != "SQL" {
		t.Errorf("skills not sorted by order: %+v", p.Skills)
	}
	if p.Items[0].Title != "New" {
		t.Errorf("items with equal order should be newest first, got %q", p.Items[0].Title)
	}
	if got := p.Items[1].CategoryClasses(); got != "web-development" {
		t.Errorf("CategoryClasses() = %q", got)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "unknown key", body: "abuot: {}\n", wantErr: "abuot"},
		{name: "bad percentage", body: "skills:\n  - {name: Go, percentage: 140}\n", wantErr: "out of range"},
		{name: "bad date", body: "portfolio:\n  - {title: X, date_created: yesterday}\n", wantErr: "YYYY-MM-DD"},
		{name: "unknown category", body: "portfolio:\n  - {title: X, date_created: \"2024-01-01\", categories: [nope]}\n", wantErr: "unknown category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "c.yaml")
			if err := os.WriteFile(path, []byte(tt.body), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load(missing) error = nil")
	}
}
