package web

import (
	"strings"
	"time"
)

const slugAllowed = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_ "

const (
	defaultSlugLimit = 60
	promptSlugLimit  = 48
	fallbackSlug     = "image"
)

// Slugify reduces text to [A-Za-z0-9-_], joining words with underscores
func Slugify(text string, limit int) string {
	var b strings.Builder
	for _, r := range text {
		if strings.ContainsRune(slugAllowed, r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}

	s := strings.Join(strings.Fields(b.String()), "_")
	if len(s) > limit {
		s = s[:limit]
	}
	s = strings.Trim(s, "_")
	if s == "" {
		return fallbackSlug
	}
	return s
}

// BuildFilename names a download: timestamp, then the user's name or the prompt
func BuildFilename(userFilename, prompt string, now time.Time) string {
	var base string
	if strings.TrimSpace(userFilename) != "" {
		base = Slugify(userFilename, defaultSlugLimit)
	} else {
		base = Slugify(prompt, promptSlugLimit)
	}
	if !strings.HasSuffix(strings.ToLower(base), ".png") {
		base += ".png"
	}
	return now.Format("20060102_150405") + "_" + base
}
