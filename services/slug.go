package services

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

// maxSlugBase leaves room for a numeric suffix inside a 255 character column.
const maxSlugBase = 240

var dashRun = regexp.MustCompile(`-{2,}`)

// Slugify lowercases s, folds accents to ASCII, drops punctuation and joins
// words with single dashes. "Joe's Diner" becomes "joes-diner".
func Slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(norm.NFKD.String(s)) {
		switch {
		case r > unicode.MaxASCII:
			// combining marks and anything without an ASCII form
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == '-' || unicode.IsSpace(r):
			b.WriteByte('-')
		}
	}
	return strings.Trim(dashRun.ReplaceAllString(b.String(), "-"), "-_")
}

// UniqueSlug derives a slug from name that no other row of model holds.
// Collisions get -2, -3, ... appended. excludeID skips the row being saved.
func UniqueSlug(tx *gorm.DB, model any, name, fallback string, excludeID uint) (string, error) {
	base := Slugify(name)
	if base == "" {
		base = fallback
	}
	base = truncate(base, maxSlugBase)

	candidate := base
	for i := 2; ; i++ {
		var count int64
		q := tx.Model(model).Where("slug = ?", candidate)
		if excludeID != 0 {
			q = q.Where("id <> ?", excludeID)
		}
		if err := q.Count(&count).Error; err != nil {
			return "", fmt.Errorf("check slug %q: %w", candidate, err)
		}
		if count == 0 {
			return candidate, nil
		}
		suffix := fmt.Sprintf("-%d", i)
		candidate = truncate(base, maxSlugBase-len(suffix)) + suffix
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
