package review

import (
	"fmt"
	"path"
	"strings"
)

// Supported review languages.
const (
	LanguageEnglish = "en"
	LanguageCzech   = "cs"
)

type languagePrompt struct {
	intro       string
	messageHint string
}

var languagePrompts = map[string]languagePrompt{
	LanguageEnglish: {
		intro:       "You are an experienced senior developer performing a code review.",
		messageHint: "a brief but clear comment in English",
	},
	LanguageCzech: {
		intro:       "Jsi zkušený senior vývojář a děláš code review.",
		messageHint: "a brief but clear comment in Czech",
	},
}

const instructions = `Your task:
1. Analyze ONLY the changed lines, not the whole file.
2. Look for problems with architecture, design, readability, SOLID, DRY and security.
3. Do NOT comment on formatting or whitespace; a linter handles that.
4. Comment only on issues that are worth a reviewer's attention.`

const responseContract = `Respond with ONLY a JSON array. Each element has this exact structure:
{
  "line": <number, must be one of the changed lines>,
  "severity": "critical|warning|suggestion",
  "message": "<%s>",
  "suggestion": "<optional: how to do it better>"
}

If there is nothing to comment on, respond with an empty array: []
No markdown, no explanation, no text before or after the JSON.`

// SystemPrompt returns the reviewer intro for the given language. Unknown
// languages fall back to English.
func SystemPrompt(language string) string {
	return promptFor(language).intro
}

func promptFor(language string) languagePrompt {
	if lp, ok := languagePrompts[strings.ToLower(language)]; ok {
		return lp
	}
	return languagePrompts[LanguageEnglish]
}

// BuildUserPrompt constructs the per-file prompt.
func BuildUserPrompt(req AnalyzeRequest, language string) string {
	var b strings.Builder
	lines := formatLines(req.EligibleLines)

	b.WriteString("## Rules and principles to check\n")
	b.WriteString(req.Rules)
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "## File: %s\n", req.Path)
	fmt.Fprintf(&b, "## File type: %s\n\n", DetectFileType(req.Path))
	b.WriteString("Apply the rules relevant to this file type.\n\n")

	b.WriteString("### Full file content (for context)\n```\n")
	b.WriteString(req.Content)
	b.WriteString("\n```\n\n")

	b.WriteString("### Diff (changes in this review)\n```diff\n")
	b.WriteString(req.Diff)
	b.WriteString("\n```\n\n")

	fmt.Fprintf(&b, "### Changed or added lines: %s\n\n", lines)

	b.WriteString(instructions)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, responseContract, promptFor(language).messageHint)
	b.WriteString("\n")

	return b.String()
}

func formatLines(lines []int) string {
	parts := make([]string, len(lines))
	for i, n := range lines {
		parts[i] = fmt.Sprint(n)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

var laravelDirs = []struct {
	dir  string
	kind string
}{
	{"/Controllers/", "Laravel Controller"},
	{"/Models/", "Laravel Model"},
	{"/Services/", "Laravel Service"},
	{"/Requests/", "Laravel Form Request"},
	{"/Resources/", "Laravel Resource"},
	{"/Actions/", "Laravel Action"},
	{"/Jobs/", "Laravel Job"},
	{"/Events/", "Laravel Event"},
	{"/Listeners/", "Laravel Listener"},
}

var extTypes = map[string]string{
	".go":    "Go",
	".py":    "Python",
	".rs":    "Rust",
	".java":  "Java",
	".kt":    "Kotlin",
	".rb":    "Ruby",
	".cs":    "C#",
	".cpp":   "C++",
	".c":     "C",
	".h":     "C/C++",
	".swift": "Swift",
}

// DetectFileType returns a human-readable description of the file, with
// framework-aware guesses for PHP and frontend sources.
func DetectFileType(p string) string {
	lower := strings.ToLower(p)
	switch ext := path.Ext(lower); ext {
	case ".php":
		for _, d := range laravelDirs {
			if strings.Contains(p, d.dir) {
				return d.kind
			}
		}
		return "PHP/Laravel"
	case ".vue":
		return "Vue component"
	case ".js", ".ts", ".jsx", ".tsx":
		if strings.Contains(lower, "/composables/") || strings.Contains(lower, "/use") {
			return "Vue composable"
		}
		if strings.Contains(lower, "/components/") {
			return "Frontend component"
		}
		return "JavaScript/TypeScript"
	default:
		if t, ok := extTypes[ext]; ok {
			return t
		}
		return "Source code"
	}
}
