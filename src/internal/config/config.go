// FILE: src/internal/config/config.go
package config

type Config struct {
	Source  SourceConfig   `toml:"source"`
	Decoder DecoderConfig  `toml:"decoder"`
	Filters []FilterConfig `toml:"filters"`
	Format  FormatConfig   `toml:"format"`
	Sinks   []SinkConfig   `toml:"sinks"`
	HTTP    *HTTPConfig    `toml:"http"`
	Logging *LogConfig     `toml:"logging"`
}

// SourceConfig selects where the raw byte stream comes from.
type SourceConfig struct {
	// Type: "exec", "file", "stdin", "tcp"
	Type string `toml:"type"`

	Exec  *ExecSourceOptions  `toml:"exec"`
	File  *FileSourceOptions  `toml:"file"`
	Stdin *StdinSourceOptions `toml:"stdin"`
	TCP   *TCPSourceOptions   `toml:"tcp"`
}

// ExecSourceOptions spawns an external log-producing command and streams
// its stdout.
type ExecSourceOptions struct {
	Command   string   `toml:"command"`
	Args      []string `toml:"args"`
	ChunkSize int64    `toml:"chunk_size"`
}

type FileSourceOptions struct {
	Path      string `toml:"path"`
	ChunkSize int64  `toml:"chunk_size"`
}

type StdinSourceOptions struct {
	ChunkSize int64 `toml:"chunk_size"`
}

type TCPSourceOptions struct {
	Host string `toml:"host"`
	Port int64  `toml:"port"`
}

// DecoderConfig controls frame decoding behavior.
type DecoderConfig struct {
	// SuppressErrors ends the record stream silently on decode failures.
	SuppressErrors bool `toml:"suppress_errors"`

	// RecoverOnInvalidHeader drops buffered bytes and ends cleanly on an
	// unrecognized frame header size instead of failing.
	RecoverOnInvalidHeader bool `toml:"recover_on_invalid_header"`

	// CorrectLineEndings undoes the shell transport's LF mangling before
	// decoding. Required for streams captured through a shell channel.
	CorrectLineEndings bool `toml:"correct_line_endings"`

	// LineEndingPlatform is the GOOS value of the host the stream was
	// captured on; empty means the current host.
	LineEndingPlatform string `toml:"line_ending_platform"`

	SubscriberBuffer int64 `toml:"subscriber_buffer"`
}

// Filter types
const (
	FilterTypeInclude  = "include"
	FilterTypeExclude  = "exclude"
	FilterTypePriority = "priority"
)

// Filter fields for regex filters
const (
	FilterFieldTag     = "tag"
	FilterFieldMessage = "message"
)

type FilterConfig struct {
	// Type: "include", "exclude" (regex on Field), or "priority"
	Type string `toml:"type"`

	// Field: "tag" or "message"; defaults to "message"
	Field string `toml:"field"`

	Patterns []string `toml:"patterns"`

	// MinPriority is the lowest severity name passed by a priority filter.
	MinPriority string `toml:"min_priority"`
}

type FormatConfig struct {
	// Type: "text" or "json"
	Type    string         `toml:"type"`
	Options map[string]any `toml:"options"`
}

type SinkConfig struct {
	// Type: "stdout", "stderr", "file"
	Type    string         `toml:"type"`
	Options map[string]any `toml:"options"`
}

// HTTPConfig exposes the decoded record stream over HTTP.
type HTTPConfig struct {
	Enabled    bool   `toml:"enabled"`
	Host       string `toml:"host"`
	Port       int64  `toml:"port"`
	StreamPath string `toml:"stream_path"`
	StatusPath string `toml:"status_path"`
	BufferSize int64  `toml:"buffer_size"`

	// AuthSecret, when set, requires clients to present an HS256-signed
	// bearer token on the stream endpoint.
	AuthSecret string `toml:"auth_secret"`

	// RecordsPerSecond throttles delivery per connected client; 0 disables.
	RecordsPerSecond float64 `toml:"records_per_second"`
	RateBurst        int64   `toml:"rate_burst"`
}

func defaults() *Config {
	return &Config{
		Source: SourceConfig{
			Type:  "stdin",
			Stdin: &StdinSourceOptions{ChunkSize: 4096},
		},
		Decoder: DecoderConfig{
			CorrectLineEndings: true,
			SubscriberBuffer:   1000,
		},
		Format: FormatConfig{
			Type: "text",
		},
		Sinks: []SinkConfig{
			{Type: "stdout"},
		},
		HTTP: &HTTPConfig{
			Enabled:    false,
			Host:       "127.0.0.1",
			Port:       8080,
			StreamPath: "/stream",
			StatusPath: "/status",
			BufferSize: 1000,
			RateBurst:  100,
		},
		Logging: DefaultLogConfig(),
	}
}
