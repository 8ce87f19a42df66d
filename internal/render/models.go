package render

import "time"

// Job is one page to render from one or more layered config files.
type Job struct {
	Configs []string
}

// Result holds the outcome of a processed job.
type Result struct {
	Configs     []string
	Output      string
	BuildID     string
	StatusCode  int
	Title       string
	Language    string
	ContentHash string
	SizeBytes   int64
	Elapsed     time.Duration
	Resources   []ResourceOutput
	// ErrorPage is set when an error page was written instead of the page.
	ErrorPage bool
	Error     error
}

// ResourceOutput is a classified head resource.
type ResourceOutput struct {
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	Kind string `json:"kind" yaml:"kind"`
	URL  string `json:"url,omitempty" yaml:"url,omitempty"`
}

// ResultSummary is the printed summary of a single page.
type ResultSummary struct {
	Config      string           `json:"config" yaml:"config"`
	Output      string           `json:"output,omitempty" yaml:"output,omitempty"`
	Status      string           `json:"status" yaml:"status"`
	StatusCode  int              `json:"status_code,omitempty" yaml:"status_code,omitempty"`
	BuildID     string           `json:"build_id,omitempty" yaml:"build_id,omitempty"`
	Title       string           `json:"title,omitempty" yaml:"title,omitempty"`
	Language    string           `json:"language,omitempty" yaml:"language,omitempty"`
	SizeBytes   int64            `json:"size_bytes,omitempty" yaml:"size_bytes,omitempty"`
	ElapsedMS   float64          `json:"elapsed_ms" yaml:"elapsed_ms"`
	ContentHash string           `json:"content_hash,omitempty" yaml:"content_hash,omitempty"`
	Resources   []ResourceOutput `json:"resources,omitempty" yaml:"resources,omitempty"`
	ErrorCode   string           `json:"error_code,omitempty" yaml:"error_code,omitempty"`
	Error       string           `json:"error,omitempty" yaml:"error,omitempty"`
}

// FinalOutput is the structured output for the entire run.
type FinalOutput struct {
	Status  string      `json:"status" yaml:"status"`
	Results interface{} `json:"results" yaml:"results"`
	Stats   Stats       `json:"stats" yaml:"stats"`
}

// Stats provides summary statistics for the run.
type Stats struct {
	TotalPages       int     `json:"total_pages" yaml:"total_pages"`
	Successful       int     `json:"successful" yaml:"successful"`
	Failed           int     `json:"failed" yaml:"failed"`
	TotalBytes       int64   `json:"total_bytes" yaml:"total_bytes"`
	TotalTimeSeconds float64 `json:"total_time_seconds" yaml:"total_time_seconds"`
}
