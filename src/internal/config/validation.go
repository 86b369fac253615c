// FILE: src/internal/config/validation.go
package config

import "fmt"

func (c *Config) validate() error {
	switch c.Source.Type {
	case "exec":
		if c.Source.Exec == nil || c.Source.Exec.Command == "" {
			return fmt.Errorf("exec source requires a command")
		}
	case "file":
		if c.Source.File == nil || c.Source.File.Path == "" {
			return fmt.Errorf("file source requires a path")
		}
	case "stdin":
	case "tcp":
		if c.Source.TCP == nil {
			return fmt.Errorf("tcp source requires a [source.tcp] section")
		}
		if c.Source.TCP.Port < 1 || c.Source.TCP.Port > 65535 {
			return fmt.Errorf("tcp source port out of range: %d", c.Source.TCP.Port)
		}
	default:
		return fmt.Errorf("unknown source type: %q", c.Source.Type)
	}

	if c.Decoder.LineEndingPlatform != "" {
		switch c.Decoder.LineEndingPlatform {
		case "linux", "darwin", "windows", "freebsd", "openbsd", "netbsd":
		default:
			return fmt.Errorf("unknown line ending platform: %q", c.Decoder.LineEndingPlatform)
		}
	}

	for i, f := range c.Filters {
		switch f.Type {
		case FilterTypeInclude, FilterTypeExclude:
			if len(f.Patterns) == 0 {
				return fmt.Errorf("filter[%d]: %s filter requires patterns", i, f.Type)
			}
			switch f.Field {
			case "", FilterFieldTag, FilterFieldMessage:
			default:
				return fmt.Errorf("filter[%d]: unknown field %q", i, f.Field)
			}
		case FilterTypePriority:
			if f.MinPriority == "" {
				return fmt.Errorf("filter[%d]: priority filter requires min_priority", i)
			}
		default:
			return fmt.Errorf("filter[%d]: unknown filter type %q", i, f.Type)
		}
	}

	switch c.Format.Type {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown format type: %q", c.Format.Type)
	}

	if len(c.Sinks) == 0 && (c.HTTP == nil || !c.HTTP.Enabled) {
		return fmt.Errorf("no sinks configured and HTTP streaming disabled")
	}
	for i, s := range c.Sinks {
		switch s.Type {
		case "stdout", "stderr", "file":
		default:
			return fmt.Errorf("sink[%d]: unknown sink type %q", i, s.Type)
		}
	}

	if c.HTTP != nil && c.HTTP.Enabled {
		if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
			return fmt.Errorf("http port out of range: %d", c.HTTP.Port)
		}
	}

	if c.Logging != nil {
		if err := c.Logging.Validate(); err != nil {
			return fmt.Errorf("logging: %w", err)
		}
	}

	return nil
}
