package domain

type FAQItem struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

type FAQCategory struct {
	Name  string    `yaml:"name"`
	Items []FAQItem `yaml:"items"`
}

// An InfoPage is an informational page. Body holds sanitized HTML.
type InfoPage struct {
	Slug     string
	Title    string
	Subtitle string
	Body     string
	FAQ      []FAQCategory
	Query    string
}
