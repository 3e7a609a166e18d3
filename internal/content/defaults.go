package content

// Defaults returns the built-in seed used when no CONTENT_FILE is given.
func Defaults() *Portfolio {
	stats := DefaultStats
	p := &Portfolio{
		About: &About{
			Name:            "Portfolio Owner",
			Title:           "Web Developer & UI/UX Designer",
			Description:     "I build fast, accessible websites and applications, from the first sketch to production.",
			Email:           "hello@example.com",
			Phone:           "+1 555 0100",
			Location:        "Remote",
			FreelanceStatus: "Available",
		},
		Contact: &ContactInfo{
			Location: "Remote",
			Email:    "hello@example.com",
			Phone:    "+1 555 0100",
			Website:  "www.example.com",
		},
		Stats: &stats,
		Skills: []Skill{
			{Name: "HTML/CSS", Percentage: 95, Order: 1},
			{Name: "JavaScript", Percentage: 90, Order: 2},
			{Name: "React", Percentage: 85, Order: 3},
			{Name: "Go", Percentage: 80, Order: 4},
			{Name: "SQL", Percentage: 75, Order: 5},
			{Name: "UI/UX Design", Percentage: 85, Order: 6},
		},
		Services: []Service{
			{Title: "Web Development", Icon: "fas fa-code", Order: 1,
				Description: "Custom websites built for speed, search engines and every screen size."},
			{Title: "UI/UX Design", Icon: "fas fa-pencil-ruler", Order: 2,
				Description: "User-centred interfaces that are easy to learn and pleasant to use."},
			{Title: "Mobile App Development", Icon: "fas fa-mobile-alt", Order: 3,
				Description: "Cross-platform mobile applications for iOS and Android."},
			{Title: "E-commerce Solutions", Icon: "fas fa-shopping-cart", Order: 4,
				Description: "Online shops with secure payments and inventory management."},
		},
		Categories: []Category{
			{Name: "Web Development"},
			{Name: "UI/UX Design"},
			{Name: "Mobile App"},
			{Name: "Branding"},
		},
		Experience: []Experience{
			{Title: "Senior Web Developer", Company: "TechCorp Inc.", StartDate: "Jan 2020", EndDate: "Present", Order: 1,
				Description: "Led front-end development of responsive web applications and cut page load times by 40%."},
			{Title: "UI/UX Designer", Company: "DesignHub", StartDate: "Mar 2018", EndDate: "Dec 2019", Order: 2,
				Description: "Designed web and mobile interfaces backed by user research and usability testing."},
			{Title: "Junior Developer", Company: "WebSolutions", StartDate: "Jun 2016", EndDate: "Feb 2018", Order: 3,
				Description: "Built and maintained client websites together with the design team."},
		},
		Education: []Education{
			{Degree: "Master of Computer Science", Institution: "University of Technology", StartDate: "2014", EndDate: "2016", Order: 1,
				Description: "Web technologies and human-computer interaction."},
			{Degree: "Bachelor of Computer Applications", Institution: "City College", StartDate: "2011", EndDate: "2014", Order: 2,
				Description: "Programming fundamentals, data structures and web development."},
		},
	}
	p.Normalize()
	return p
}
