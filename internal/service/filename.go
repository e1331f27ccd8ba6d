package service

import (
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"
)

var dispositionFilename = regexp.MustCompile(`(?i)filename\*=UTF-8''([^;]+)|filename="?([^";]+)"?`)

// DefaultFilename is the save name used when the response names no file.
func DefaultFilename(now time.Time) string {
	return "filled_form_" + now.UTC().Format("2006-01-02") + ".pdf"
}

// FilenameFromDisposition extracts the save name from a Content-Disposition
// header. Either form is percent-decoded; a malformed escape keeps the raw
// text.
func FilenameFromDisposition(header string, now time.Time) string {
	m := dispositionFilename.FindStringSubmatch(header)
	if m == nil {
		return DefaultFilename(now)
	}

	name := m[1]
	if name == "" {
		name = m[2]
	}
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}

	name = strings.TrimSpace(name)
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return DefaultFilename(now)
	}
	return name
}
