// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/trialscout/pkg/types"
)

// SummaryFile is written to the output directory after every run.
const SummaryFile = "run-summary.yaml"

// Summary is the on-disk record of a single pipeline run.
type Summary struct {
	RunID           string        `yaml:"run_id,omitempty"`
	Keyword         string        `yaml:"keyword"`
	OutputDirectory string        `yaml:"output_directory"`
	StartedAt       time.Time     `yaml:"started_at"`
	FinishedAt      time.Time     `yaml:"finished_at"`
	Stages          []StageResult `yaml:"stages"`
	Error           string        `yaml:"error,omitempty"`
}

// SummaryPath returns where Run writes the summary for cfg.
func SummaryPath(cfg types.PipelineConfig) string {
	return filepath.Join(cfg.OutputDirectory, SummaryFile)
}

// WriteSummary saves s to path as YAML.
func WriteSummary(path string, s Summary) error {
	data, err := yaml.Marshal(&s)
	if err != nil {
		return fmt.Errorf("marshaling run summary: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadSummary loads a summary written by WriteSummary.
func ReadSummary(path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run summary: %w", err)
	}
	var s Summary
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing run summary: %w", err)
	}
	return &s, nil
}

// FormatSummary writes a human-readable stage table to w.
func FormatSummary(s Summary, w io.Writer) {
	fmt.Fprintf(w, "%-8s  %6s  %7s  %8s  %s\n", "Stage", "Rows", "Skipped", "Failures", "File")
	fmt.Fprintln(w, strings.Repeat("-", 72))
	for _, st := range s.Stages {
		file := st.OutputPath
		if st.Error != "" {
			file = "error: " + st.Error
		}
		fmt.Fprintf(w, "%-8s  %6d  %7d  %8d  %s\n", st.Name, st.Rows, st.Skipped, st.Failures, file)
	}
	if !s.FinishedAt.IsZero() {
		fmt.Fprintf(w, "\nFinished in %s", s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond))
		if s.RunID != "" {
			fmt.Fprintf(w, " (run %s)", s.RunID)
		}
		fmt.Fprintln(w)
	}
}
