package review

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ProjectRulesFile is looked up in the project directory of the reviewed
// repository.
const ProjectRulesFile = "review_rules.md"

// DefaultRules is used when no other rules source is available.
const DefaultRules = "Baseline rules: SOLID, clean code, DRY, security."

// Rules origins reported by LoadRules.
const (
	RulesFromContent = "content"
	RulesFromProject = "project"
	RulesFromFile    = "file"
	RulesFromDefault = "default"
)

// RulesSource lists the places rules may come from, in precedence order.
type RulesSource struct {
	Content    string // inline rules text
	ProjectDir string // directory searched for ProjectRulesFile
	File       string // configured rules file
}

// Rules is the opaque review rules text passed to the advisory service.
type Rules struct {
	Text   string
	Origin string
	Path   string
}

// LoadRules resolves the rules text. A missing project or configured file
// is not an error; an unreadable one is.
func LoadRules(src RulesSource) (Rules, error) {
	if strings.TrimSpace(src.Content) != "" {
		return Rules{Text: src.Content, Origin: RulesFromContent}, nil
	}

	if src.ProjectDir != "" {
		p := filepath.Join(src.ProjectDir, ProjectRulesFile)
		text, ok, err := readRulesFile(p)
		if err != nil {
			return Rules{}, err
		}
		if ok {
			return Rules{Text: text, Origin: RulesFromProject, Path: p}, nil
		}
	}

	if src.File != "" {
		text, ok, err := readRulesFile(src.File)
		if err != nil {
			return Rules{}, err
		}
		if ok {
			return Rules{Text: text, Origin: RulesFromFile, Path: src.File}, nil
		}
	}

	return Rules{Text: DefaultRules, Origin: RulesFromDefault}, nil
}

func readRulesFile(path string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading rules file %s: %w", path, err)
	}
	return string(data), true, nil
}
