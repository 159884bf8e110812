package output

import (
	"fmt"
	"io"
	"os"

	"github.com/dshills/mreview/internal/annotate"
	"github.com/dshills/mreview/internal/forge"
)

// Report is what a pass would publish, shown instead of publishing it.
type Report struct {
	Tool     string                    `json:"tool"`
	Version  string                    `json:"version"`
	RunID    string                    `json:"runId"`
	Unit     string                    `json:"unit"`
	Stats    annotate.Stats            `json:"stats"`
	Comments []forge.PositionedComment `json:"comments"`
	Deleted  []forge.Note              `json:"deleted,omitempty"`
	Summary  string                    `json:"summary"`
}

// Writer writes a report in a specific format.
type Writer interface {
	Write(w io.Writer, report *Report) error
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case "", "text":
		return &TextWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteReport writes the report to the specified output (file path or stdout).
func WriteReport(report *Report, format, outPath string) error {
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}

	var w io.Writer
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	} else {
		w = os.Stdout
	}

	return writer.Write(w, report)
}
