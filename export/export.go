// Package export writes the status of every component to a file in one of
// several formats. Each row is flattened to the fields a spreadsheet needs:
// project, component, translated_percent and translate_url.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/minios-linux/elementary-l10n/weblate"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var _ pflag.Value = (*Format)(nil)

// Formats lists the supported formats.
var Formats = []Format{FormatCSV, FormatJSON, FormatYAML}

func (f *Format) String() string { return string(*f) }

// Set implements pflag.Value.
func (f *Format) Set(s string) error {
	s = strings.ToLower(s)
	if s == "yml" {
		s = string(FormatYAML)
	}
	for _, v := range Formats {
		if string(v) == s {
			*f = v
			return nil
		}
	}
	return fmt.Errorf("must be one of csv, json, yaml")
}

// Type implements pflag.Value.
func (f *Format) Type() string { return "format" }

// FormatFromPath guesses the format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	var f Format
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", false
	}
	if err := f.Set(ext); err != nil {
		return "", false
	}
	return f, true
}

// DefaultFileName is the suggested output name for a format.
func DefaultFileName(f Format) string {
	return "translation-status." + string(f)
}

// Record is one exported row.
type Record struct {
	Project           string  `json:"project" yaml:"project"`
	Component         string  `json:"component" yaml:"component"`
	TranslatedPercent float64 `json:"translated_percent" yaml:"translated_percent"`
	TranslateURL      string  `json:"translate_url" yaml:"translate_url"`
}

var csvHeader = []string{"project", "component", "translated_percent", "translate_url"}

// Flatten converts rows to records, keeping their order.
func Flatten(rows []weblate.Row) []Record {
	records := make([]Record, len(rows))
	for i, r := range rows {
		records[i] = Record{
			Project:           r.Project,
			Component:         r.Component,
			TranslatedPercent: r.TranslatedPercent,
			TranslateURL:      r.TranslateURL,
		}
	}
	return records
}

// Write encodes rows to w in format f. CSV output of no rows is empty, with
// no header line; JSON and YAML write an empty list.
func Write(w io.Writer, f Format, rows []weblate.Row) error {
	records := Flatten(rows)

	switch f {
	case FormatCSV:
		if len(records) == 0 {
			return nil
		}
		cw := csv.NewWriter(w)
		if err := cw.Write(csvHeader); err != nil {
			return err
		}
		for _, r := range records {
			pct := strconv.FormatFloat(r.TranslatedPercent, 'f', -1, 64)
			if err := cw.Write([]string{r.Project, r.Component, pct, r.TranslateURL}); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()

	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(records)

	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return err
		}
		return enc.Close()
	}

	return fmt.Errorf("unsupported export format %q", f)
}

// WriteFile writes rows to path, replacing any existing file.
func WriteFile(path string, f Format, rows []weblate.Row) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := Write(out, f, rows); err != nil {
		out.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}
