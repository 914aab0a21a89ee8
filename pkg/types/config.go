package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout. Zero means no timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "propagate/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// RegistryConfig holds settings for fetching and downloading executive orders.
type RegistryConfig struct {
	HTTPConfig `yaml:",inline"`

	// DocumentsURL overrides the Federal Register documents endpoint when set.
	DocumentsURL string `json:"documents_url,omitempty" yaml:"documents_url,omitempty"`

	// PDFDir is the directory for downloaded PDFs (contains metadata/).
	PDFDir string `json:"pdf_dir" yaml:"pdf_dir"`

	// PerPage is the page size requested from the documents API (default 1000).
	PerPage int `json:"per_page" yaml:"per_page"`

	// DownloadDelay is the minimum spacing between PDF downloads (default 0).
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay"`
}

// AIConfig holds settings for stages that call the Messages API.
type AIConfig struct {
	// Model is the model identifier (e.g. "claude-sonnet-4-20250514").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxTokens is the response token budget per request (default 16000).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// MaxSummaryLength is the summary length target, in characters, given to
	// the model (default 250).
	MaxSummaryLength int `json:"max_summary_length" yaml:"max_summary_length"`
}

// AnalysisConfig holds settings for summarizing orders.
type AnalysisConfig struct {
	AIConfig `yaml:",inline"`

	// SummariesDir is the record store directory.
	SummariesDir string `json:"summaries_dir" yaml:"summaries_dir"`
}

// BatchConfig holds settings for the batch workflow.
type BatchConfig struct {
	AnalysisConfig `yaml:",inline"`

	// ResultsDir is where downloaded batch result files are written.
	ResultsDir string `json:"results_dir" yaml:"results_dir"`

	// RequestLogDir is where request_ids_<president>.txt logs are appended.
	RequestLogDir string `json:"request_log_dir" yaml:"request_log_dir"`
}

// Config groups every setting of one invocation.
type Config struct {
	Registry RegistryConfig `json:"registry" yaml:"registry"`
	Batch    BatchConfig    `json:"batch" yaml:"batch"`
}

// Analysis returns the analysis settings.
func (c Config) Analysis() AnalysisConfig {
	return c.Batch.AnalysisConfig
}
