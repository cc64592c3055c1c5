package backend

import "strings"

// ParseLogLevel extracts a level from a Python backend output line.
// Recognised forms are the logging module default "LEVEL:name:message"
// and uvicorn's padded "LEVEL:     message". Tracebacks are errors.
// Returns the level and the message with the level prefix stripped.
func ParseLogLevel(line string) (level, msg string) {
	if strings.HasPrefix(line, "Traceback (most recent call last)") {
		return "error", line
	}

	prefix, rest, found := strings.Cut(line, ":")
	if !found {
		return "info", line
	}

	switch prefix {
	case "CRITICAL", "FATAL":
		level = "error"
	case "ERROR":
		level = "error"
	case "WARNING", "WARN":
		level = "warning"
	case "INFO":
		level = "info"
	case "DEBUG":
		level = "debug"
	default:
		return "info", line
	}

	return level, strings.TrimLeft(rest, " ")
}
