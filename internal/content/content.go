// Package content defines the portfolio entities and loads seed content
// from YAML.
package content

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Skill is a named proficiency shown as a percentage bar.
type Skill struct {
	ID         int64  `yaml:"-" json:"id"`
	Name       string `yaml:"name" json:"name"`
	Percentage int    `yaml:"percentage" json:"percentage"`
	Order      int    `yaml:"order" json:"order"`
}

// Service is an offered service with a FontAwesome icon class.
type Service struct {
	ID          int64  `yaml:"-" json:"id"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Icon        string `yaml:"icon" json:"icon"`
	Order       int    `yaml:"order" json:"order"`
}

// Category groups portfolio items; Slug is derived from Name when empty.
type Category struct {
	ID   int64  `yaml:"-" json:"id"`
	Name string `yaml:"name" json:"name"`
	Slug string `yaml:"slug,omitempty" json:"slug"`
}

// PortfolioItem is one showcased project. Image is relative to the image
// root; Categories holds category slugs.
type PortfolioItem struct {
	ID          int64    `yaml:"-" json:"id"`
	Title       string   `yaml:"title" json:"title"`
	Subtitle    string   `yaml:"subtitle" json:"subtitle"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Image       string   `yaml:"image" json:"image"`
	Link        string   `yaml:"link,omitempty" json:"link,omitempty"`
	Categories  []string `yaml:"categories,omitempty" json:"categories,omitempty"`
	DateCreated string   `yaml:"date_created" json:"date_created"`
	Featured    bool     `yaml:"featured,omitempty" json:"featured"`
	Order       int      `yaml:"order" json:"order"`
}

// CategoryClasses returns the item's category slugs joined by spaces, for
// use as CSS filter classes.
func (p PortfolioItem) CategoryClasses() string {
	return strings.Join(p.Categories, " ")
}

// Experience is a job history entry.
type Experience struct {
	ID          int64    `yaml:"-" json:"id"`
	Title       string   `yaml:"title" json:"title"`
	Company     string   `yaml:"company" json:"company"`
	Description string   `yaml:"description" json:"description"`
	StartDate   string   `yaml:"start_date" json:"start_date"`
	EndDate     string   `yaml:"end_date" json:"end_date"`
	Skills      []string `yaml:"skills,omitempty" json:"skills,omitempty"`
	Order       int      `yaml:"order" json:"order"`
}

// Education is a degree entry.
type Education struct {
	ID          int64  `yaml:"-" json:"id"`
	Degree      string `yaml:"degree" json:"degree"`
	Institution string `yaml:"institution" json:"institution"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	StartDate   string `yaml:"start_date" json:"start_date"`
	EndDate     string `yaml:"end_date" json:"end_date"`
	Order       int    `yaml:"order" json:"order"`
}

// About is the site owner's profile. There is at most one.
type About struct {
	Name            string `yaml:"name" json:"name"`
	Title           string `yaml:"title" json:"title"`
	Description     string `yaml:"description" json:"description"`
	Email           string `yaml:"email" json:"email"`
	Phone           string `yaml:"phone" json:"phone"`
	Location        string `yaml:"location" json:"location"`
	FreelanceStatus string `yaml:"freelance_status" json:"freelance_status"`
	CVURL           string `yaml:"cv_url,omitempty" json:"cv_url,omitempty"`
}

// ContactInfo is the public contact block. There is at most one.
type ContactInfo struct {
	Location string `yaml:"location" json:"location"`
	Email    string `yaml:"email" json:"email"`
	Phone    string `yaml:"phone" json:"phone"`
	Website  string `yaml:"website,omitempty" json:"website,omitempty"`
}

// Stats are the headline counters on the home page.
type Stats struct {
	ProjectsCompleted int `yaml:"projects_completed" json:"projects_completed"`
	HappyClients      int `yaml:"happy_clients" json:"happy_clients"`
	HoursWorked       int `yaml:"hours_worked" json:"hours_worked"`
	AwardsWon         int `yaml:"awards_won" json:"awards_won"`
}

// DefaultStats is the row created when none exists.
var DefaultStats = Stats{ProjectsCompleted: 150, HappyClients: 65, HoursWorked: 1200, AwardsWon: 8}

// ContactMessage is a submission of the contact form.
type ContactMessage struct {
	ID        int64     `json:"id"`
	Reference string    `json:"reference"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	DateSent  time.Time `json:"date_sent"`
	IsRead    bool      `json:"is_read"`
}

// Portfolio is everything the home page renders. It is also the shape of
// the YAML seed document.
type Portfolio struct {
	About      *About          `yaml:"about,omitempty" json:"about,omitempty"`
	Contact    *ContactInfo    `yaml:"contact,omitempty" json:"contact,omitempty"`
	Stats      *Stats          `yaml:"stats,omitempty" json:"stats,omitempty"`
	Skills     []Skill         `yaml:"skills,omitempty" json:"skills"`
	Services   []Service       `yaml:"services,omitempty" json:"services"`
	Categories []Category      `yaml:"categories,omitempty" json:"categories"`
	Items      []PortfolioItem `yaml:"portfolio,omitempty" json:"portfolio"`
	Experience []Experience    `yaml:"experience,omitempty" json:"experience"`
	Education  []Education     `yaml:"education,omitempty" json:"education"`
}

var (
	nonSlug   = regexp.MustCompile(`[^a-z0-9]+`)
	dateShape = "2006-01-02"
)

// Slugify lower-cases name and joins its alphanumeric runs with dashes.
func Slugify(name string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

// Load reads a YAML seed document. Unknown keys are rejected so typos do
// not silently drop content.
func Load(path string) (*Portfolio, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open content file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var p Portfolio
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to parse content file %s: %w", path, err)
	}

	p.Normalize()
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid content file %s: %w", path, err)
	}
	return &p, nil
}

// Normalize fills derived fields and sorts lists into display order.
func (p *Portfolio) Normalize() {
	for i := range p.Categories {
		if p.Categories[i].Slug == "" {
			p.Categories[i].Slug = Slugify(p.Categories[i].Name)
		}
	}
	for i := range p.Items {
		for j, c := range p.Items[i].Categories {
			p.Items[i].Categories[j] = Slugify(c)
		}
	}

	sort.SliceStable(p.Skills, func(i, j int) bool { return p.Skills[i].Order < p.Skills[j].Order })
	sort.SliceStable(p.Services, func(i, j int) bool { return p.Services[i].Order < p.Services[j].Order })
	sort.SliceStable(p.Experience, func(i, j int) bool { return p.Experience[i].Order < p.Experience[j].Order })
	sort.SliceStable(p.Education, func(i, j int) bool { return p.Education[i].Order < p.Education[j].Order })
	sort.SliceStable(p.Items, func(i, j int) bool {
		if p.Items[i].Order != p.Items[j].Order {
			return p.Items[i].Order < p.Items[j].Order
		}
		// Newest first; ISO dates sort lexically.
		return p.Items[i].DateCreated > p.Items[j].DateCreated
	})
}

// Validate checks the constraints the database relies on.
func (p *Portfolio) Validate() error {
	var errs []error

	for _, s := range p.Skills {
		if s.Name == "" {
			errs = append(errs, errors.New("skill without name"))
		}
		if s.Percentage < 0 || s.Percentage > 100 {
			errs = append(errs, fmt.Errorf("skill %q: percentage %d out of range 0-100", s.Name, s.Percentage))
		}
	}
	for _, s := range p.Services {
		if s.Title == "" {
			errs = append(errs, errors.New("service without title"))
		}
	}

	slugs := make(map[string]bool, len(p.Categories))
	for _, c := range p.Categories {
		if c.Name == "" {
			errs = append(errs, errors.New("category without name"))
		}
		if slugs[c.Slug] {
			errs = append(errs, fmt.Errorf("duplicate category slug %q", c.Slug))
		}
		slugs[c.Slug] = true
	}

	for _, it := range p.Items {
		if it.Title == "" {
			errs = append(errs, errors.New("portfolio item without title"))
		}
		if _, err := time.Parse(dateShape, it.DateCreated); err != nil {
			errs = append(errs, fmt.Errorf("portfolio item %q: date_created must be YYYY-MM-DD", it.Title))
		}
		for _, c := range it.Categories {
			if !slugs[c] {
				errs = append(errs, fmt.Errorf("portfolio item %q: unknown category %q", it.Title, c))
			}
		}
	}

	for _, e := range p.Experience {
		if e.Title == "" || e.Company == "" {
			errs = append(errs, errors.New("experience needs title and company"))
		}
	}
	for _, e := range p.Education {
		if e.Degree == "" || e.Institution == "" {
			errs = append(errs, errors.New("education needs degree and institution"))
		}
	}

	return errors.Join(errs...)
}
