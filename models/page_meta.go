package models

// ImportedMeta describes what was learned from an existing HTML page besides
// its RDFa metadata.
type ImportedMeta struct {
	Source string `yaml:"source"`

	// Language signals
	Language           string  `yaml:"language,omitempty"` // BCP 47 tag
	LanguageDetected   bool    `yaml:"language_detected,omitempty"`
	LanguageConfidence float64 `yaml:"language_confidence,omitempty"`

	// Size signals
	WordCount        int     `yaml:"word_count"`
	EstimatedReadMin float64 `yaml:"estimated_read_min"`
	// Keywords are the most frequent words as "word:count".
	Keywords []string `yaml:"keywords,omitempty"`

	// Readability enrichment (from go-readability)
	Author        string `yaml:"author,omitempty"`
	Excerpt       string `yaml:"excerpt,omitempty"`
	SiteName      string `yaml:"site_name,omitempty"`
	PublishedTime string `yaml:"published_time,omitempty"` // ISO-8601 date
	Favicon       string `yaml:"favicon,omitempty"`
	Image         string `yaml:"image,omitempty"` // main image URL

	// Resources referenced from <head>
	Stylesheets []string `yaml:"stylesheets,omitempty"`
	Scripts     []string `yaml:"scripts,omitempty"`
	Icons       []string `yaml:"icons,omitempty"`

	// Head elements that could not be mapped to statements
	Skipped []string `yaml:"skipped,omitempty"`
}
