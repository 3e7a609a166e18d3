package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"portfolio-site/internal/content"
	"portfolio-site/internal/logging"
	"portfolio-site/internal/metrics"
)

// GetPortfolio loads everything the home page renders. A missing stats row
// is created with content.DefaultStats first.
func (d *Database) GetPortfolio(ctx context.Context) (*content.Portfolio, error) {
	if err := d.EnsureStats(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	start := time.Now()
	var err error
	defer func() { recordQuery("get_portfolio", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	p := &content.Portfolio{}

	if p.Skills, err = d.listSkills(ctx); err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	if p.Services, err = d.listServices(ctx); err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	if p.Categories, err = d.listCategories(ctx); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if p.Items, err = d.listItems(ctx); err != nil {
		return nil, fmt.Errorf("list portfolio items: %w", err)
	}
	if p.Experience, err = d.listExperience(ctx); err != nil {
		return nil, fmt.Errorf("list experience: %w", err)
	}
	if p.Education, err = d.listEducation(ctx); err != nil {
		return nil, fmt.Errorf("list education: %w", err)
	}
	if p.About, err = d.getAbout(ctx); err != nil {
		return nil, fmt.Errorf("get about: %w", err)
	}
	if p.Contact, err = d.getContactInfo(ctx); err != nil {
		return nil, fmt.Errorf("get contact info: %w", err)
	}
	if p.Stats, err = d.getStats(ctx); err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}

	return p, nil
}

// EnsureStats inserts the default stats row if none exists.
func (d *Database) EnsureStats(ctx context.Context) (err error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	start := time.Now()
	defer func() { recordQuery("ensure_stats", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	s := content.DefaultStats
	_, err = d.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO stats (id, projects_completed, happy_clients, hours_worked, awards_won)
		VALUES (1, ?, ?, ?, ?)
	`, s.ProjectsCompleted, s.HappyClients, s.HoursWorked, s.AwardsWon)
	return err
}

func (d *Database) listSkills(ctx context.Context) ([]content.Skill, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT id, name, percentage, display_order FROM skills ORDER BY display_order, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	skills := []content.Skill{}
	for rows.Next() {
		var s content.Skill
		if err := rows.Scan(&s.ID, &s.Name, &s.Percentage, &s.Order); err != nil {
			return nil, err
		}
		skills = append(skills, s)
	}
	return skills, rows.Err()
}

func (d *Database) listServices(ctx context.Context) ([]content.Service, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT id, title, description, icon, display_order FROM services ORDER BY display_order, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	services := []content.Service{}
	for rows.Next() {
		var s content.Service
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.Icon, &s.Order); err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

func (d *Database) listCategories(ctx context.Context) ([]content.Category, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT id, name, slug FROM portfolio_categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []content.Category{}
	for rows.Next() {
		var c content.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (d *Database) listItems(ctx context.Context) ([]content.PortfolioItem, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, title, subtitle, description, image, link, date_created, featured, display_order
		FROM portfolio_items
		ORDER BY display_order, date_created DESC, id
	`)
	if err != nil {
		return nil, err
	}

	items := []content.PortfolioItem{}
	index := make(map[int64]int)
	for rows.Next() {
		var it content.PortfolioItem
		var featured int
		if err := rows.Scan(&it.ID, &it.Title, &it.Subtitle, &it.Description, &it.Image, &it.Link, &it.DateCreated, &featured, &it.Order); err != nil {
			rows.Close()
			return nil, err
		}
		it.Featured = featured != 0
		index[it.ID] = len(items)
		items = append(items, it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	catRows, err := d.db.QueryContext(ctx, `
		SELECT pic.item_id, c.slug
		FROM portfolio_item_categories pic
		JOIN portfolio_categories c ON c.id = pic.category_id
		ORDER BY c.name
	`)
	if err != nil {
		return nil, err
	}
	defer catRows.Close()

	for catRows.Next() {
		var itemID int64
		var slug string
		if err := catRows.Scan(&itemID, &slug); err != nil {
			return nil, err
		}
		if i, ok := index[itemID]; ok {
			items[i].Categories = append(items[i].Categories, slug)
		}
	}
	return items, catRows.Err()
}

func (d *Database) listExperience(ctx context.Context) ([]content.Experience, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, title, company, description, start_date, end_date, display_order
		FROM experiences
		ORDER BY display_order, id
	`)
	if err != nil {
		return nil, err
	}

	experience := []content.Experience{}
	index := make(map[int64]int)
	for rows.Next() {
		var e content.Experience
		if err := rows.Scan(&e.ID, &e.Title, &e.Company, &e.Description, &e.StartDate, &e.EndDate, &e.Order); err != nil {
			rows.Close()
			return nil, err
		}
		index[e.ID] = len(experience)
		experience = append(experience, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	skillRows, err := d.db.QueryContext(ctx, `
		SELECT es.experience_id, s.name
		FROM experience_skills es
		JOIN skills s ON s.id = es.skill_id
		ORDER BY s.display_order, s.id
	`)
	if err != nil {
		return nil, err
	}
	defer skillRows.Close()

	for skillRows.Next() {
		var expID int64
		var name string
		if err := skillRows.Scan(&expID, &name); err != nil {
			return nil, err
		}
		if i, ok := index[expID]; ok {
			experience[i].Skills = append(experience[i].Skills, name)
		}
	}
	return experience, skillRows.Err()
}

func (d *Database) listEducation(ctx context.Context) ([]content.Education, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, degree, institution, description, start_date, end_date, display_order
		FROM education
		ORDER BY display_order, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	education := []content.Education{}
	for rows.Next() {
		var e content.Education
		if err := rows.Scan(&e.ID, &e.Degree, &e.Institution, &e.Description, &e.StartDate, &e.EndDate, &e.Order); err != nil {
			return nil, err
		}
		education = append(education, e)
	}
	return education, rows.Err()
}

func (d *Database) getAbout(ctx context.Context) (*content.About, error) {
	var a content.About
	err := d.db.QueryRowContext(ctx, `
		SELECT name, title, description, email, phone, location, freelance_status, cv_url
		FROM about WHERE id = 1
	`).Scan(&a.Name, &a.Title, &a.Description, &a.Email, &a.Phone, &a.Location, &a.FreelanceStatus, &a.CVURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (d *Database) getContactInfo(ctx context.Context) (*content.ContactInfo, error) {
	var c content.ContactInfo
	err := d.db.QueryRowContext(ctx, `SELECT location, email, phone, website FROM contact_info WHERE id = 1`).
		Scan(&c.Location, &c.Email, &c.Phone, &c.Website)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (d *Database) getStats(ctx context.Context) (*content.Stats, error) {
	var s content.Stats
	err := d.db.QueryRowContext(ctx, `
		SELECT projects_completed, happy_clients, hours_worked, awards_won FROM stats WHERE id = 1
	`).Scan(&s.ProjectsCompleted, &s.HappyClients, &s.HoursWorked, &s.AwardsWon)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Seed stores the given portfolio content using get-or-create semantics:
// entities are matched by their natural key (skill name, service title,
// category slug, item title, experience title+company, education
// degree+institution) and existing rows are left untouched. The singleton
// about, contact and stats rows are only created when absent.
// Returns the number of rows created.
func (d *Database) Seed(ctx context.Context, p *content.Portfolio) (created int, err error) {
	if p == nil {
		return 0, nil
	}

	start := time.Now()
	defer func() { recordQuery("seed", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error("seed rollback failed: %v", rbErr)
			}
		}
	}()

	exec := func(query string, args ...any) error {
		res, execErr := tx.ExecContext(ctx, query, args...)
		if execErr != nil {
			return execErr
		}
		n, _ := res.RowsAffected()
		created += int(n)
		return nil
	}

	for _, s := range p.Skills {
		if err = exec(`INSERT OR IGNORE INTO skills (name, percentage, display_order) VALUES (?, ?, ?)`,
			s.Name, s.Percentage, s.Order); err != nil {
			return 0, fmt.Errorf("seed skill %q: %w", s.Name, err)
		}
	}

	for _, s := range p.Services {
		if err = exec(`INSERT OR IGNORE INTO services (title, description, icon, display_order) VALUES (?, ?, ?, ?)`,
			s.Title, s.Description, s.Icon, s.Order); err != nil {
			return 0, fmt.Errorf("seed service %q: %w", s.Title, err)
		}
	}

	for _, c := range p.Categories {
		slug := c.Slug
		if slug == "" {
			slug = content.Slugify(c.Name)
		}
		if err = exec(`INSERT OR IGNORE INTO portfolio_categories (name, slug) VALUES (?, ?)`, c.Name, slug); err != nil {
			return 0, fmt.Errorf("seed category %q: %w", c.Name, err)
		}
	}

	for _, it := range p.Items {
		if err = exec(`
			INSERT OR IGNORE INTO portfolio_items
				(title, subtitle, description, image, link, date_created, featured, display_order)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, it.Title, it.Subtitle, it.Description, it.Image, it.Link, it.DateCreated, boolToInt(it.Featured), it.Order); err != nil {
			return 0, fmt.Errorf("seed portfolio item %q: %w", it.Title, err)
		}
		for _, slug := range it.Categories {
			if err = exec(`
				INSERT OR IGNORE INTO portfolio_item_categories (item_id, category_id)
				SELECT i.id, c.id FROM portfolio_items i, portfolio_categories c
				WHERE i.title = ? AND c.slug = ?
			`, it.Title, slug); err != nil {
				return 0, fmt.Errorf("link item %q to category %q: %w", it.Title, slug, err)
			}
		}
	}

	for _, e := range p.Experience {
		if err = exec(`
			INSERT OR IGNORE INTO experiences (title, company, description, start_date, end_date, display_order)
			VALUES (?, ?, ?, ?, ?, ?)
		`, e.Title, e.Company, e.Description, e.StartDate, e.EndDate, e.Order); err != nil {
			return 0, fmt.Errorf("seed experience %q: %w", e.Title, err)
		}
		for _, skill := range e.Skills {
			if err = exec(`
				INSERT OR IGNORE INTO experience_skills (experience_id, skill_id)
				SELECT e.id, s.id FROM experiences e, skills s
				WHERE e.title = ? AND e.company = ? AND s.name = ?
			`, e.Title, e.Company, skill); err != nil {
				return 0, fmt.Errorf("link experience %q to skill %q: %w", e.Title, skill, err)
			}
		}
	}

	for _, e := range p.Education {
		if err = exec(`
			INSERT OR IGNORE INTO education (degree, institution, description, start_date, end_date, display_order)
			VALUES (?, ?, ?, ?, ?, ?)
		`, e.Degree, e.Institution, e.Description, e.StartDate, e.EndDate, e.Order); err != nil {
			return 0, fmt.Errorf("seed education %q: %w", e.Degree, err)
		}
	}

	if a := p.About; a != nil {
		status := a.FreelanceStatus
		if status == "" {
			status = "Available"
		}
		if err = exec(`
			INSERT OR IGNORE INTO about (id, name, title, description, email, phone, location, freelance_status, cv_url)
			VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
		`, a.Name, a.Title, a.Description, a.Email, a.Phone, a.Location, status, a.CVURL); err != nil {
			return 0, fmt.Errorf("seed about: %w", err)
		}
	}

	if c := p.Contact; c != nil {
		if err = exec(`INSERT OR IGNORE INTO contact_info (id, location, email, phone, website) VALUES (1, ?, ?, ?, ?)`,
			c.Location, c.Email, c.Phone, c.Website); err != nil {
			return 0, fmt.Errorf("seed contact info: %w", err)
		}
	}

	stats := content.DefaultStats
	if p.Stats != nil {
		stats = *p.Stats
	}
	if err = exec(`
		INSERT OR IGNORE INTO stats (id, projects_completed, happy_clients, hours_worked, awards_won)
		VALUES (1, ?, ?, ?, ?)
	`, stats.ProjectsCompleted, stats.HappyClients, stats.HoursWorked, stats.AwardsWon); err != nil {
		return 0, fmt.Errorf("seed stats: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed transaction: %w", err)
	}
	return created, nil
}

// CollectStats implements metrics.StatsProvider.
func (d *Database) CollectStats(ctx context.Context) (stats metrics.Stats, err error) {
	start := time.Now()
	defer func() { recordQuery("collect_stats", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	err = d.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM portfolio_items),
			(SELECT COUNT(*) FROM contact_messages WHERE is_read = 0)
	`).Scan(&stats.PortfolioItems, &stats.UnreadMessages)
	return stats, err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
