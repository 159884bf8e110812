// Package selector decides which changed files are in scope for review.
package selector

import (
	"path"
	"strings"
)

// DefaultIgnorePatterns are excluded from review regardless of extension.
var DefaultIgnorePatterns = []string{
	"*.lock", "*.min.js", "*.min.css",
	"package-lock.json", "yarn.lock", "composer.lock", "pnpm-lock.yaml",
	"__pycache__", ".git", "node_modules", "vendor/",
	"*.generated.*", "*.map",
	"storage/", "bootstrap/cache/", "public/build/", "public/hot",
	"dist/", "build/", ".next/", ".nuxt/",
	"_ide_helper*", ".phpstorm.meta.php",
}

// DefaultExtensions are the file extensions reviewed by default.
var DefaultExtensions = []string{
	".php", ".vue", ".blade.php",
	".py", ".js", ".ts", ".tsx", ".jsx", ".mjs",
	".java", ".kt", ".go", ".rs", ".rb",
	".cs", ".cpp", ".c", ".h", ".swift",
}

// Selector is an immutable file filter built once from configuration.
type Selector struct {
	ignore     []string
	extensions map[string]bool
}

// New builds a Selector from the defaults plus the extra ignore patterns and
// extensions. Extensions without a leading dot get one.
func New(extraIgnore, extraExtensions []string) *Selector {
	s := &Selector{
		ignore:     make([]string, 0, len(DefaultIgnorePatterns)+len(extraIgnore)),
		extensions: make(map[string]bool, len(DefaultExtensions)+len(extraExtensions)),
	}
	s.ignore = append(s.ignore, DefaultIgnorePatterns...)
	for _, p := range extraIgnore {
		if p = strings.TrimSpace(p); p != "" {
			s.ignore = append(s.ignore, p)
		}
	}
	for _, e := range DefaultExtensions {
		s.extensions[e] = true
	}
	for _, e := range extraExtensions {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		s.extensions[e] = true
	}
	return s
}

// ShouldReview reports whether the file at p is in scope. Ignore patterns
// take precedence over the extension allow-list.
func (s *Selector) ShouldReview(p string) bool {
	if s.Ignored(p) {
		return false
	}
	return s.extensions[strings.ToLower(path.Ext(p))]
}

// Ignored reports whether any ignore pattern matches p.
//
// Directory patterns ("dist/") match as plain substrings of the whole path,
// so a file named "distribution.go" is ignored by "dist/".
func (s *Selector) Ignored(p string) bool {
	base := path.Base(p)
	ext := path.Ext(p)
	for _, pattern := range s.ignore {
		switch {
		case strings.HasPrefix(pattern, "*"):
			suffix := pattern[1:]
			if ext == suffix || strings.HasSuffix(base, suffix) {
				return true
			}
		case strings.HasSuffix(pattern, "/"):
			if strings.Contains(p, strings.TrimSuffix(pattern, "/")) {
				return true
			}
		case strings.Contains(p, pattern):
			return true
		}
	}
	return false
}

// Patterns returns a copy of the effective ignore patterns.
func (s *Selector) Patterns() []string {
	out := make([]string, len(s.ignore))
	copy(out, s.ignore)
	return out
}
