package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/minios-linux/elementary-l10n/weblate"
)

func sampleRows() []weblate.Row {
	return []weblate.Row{
		{
			Project: "Files", ProjectSlug: "files", Component: "core", ComponentSlug: "core",
			TranslatedPercent: 87.5,
			URL:               "https://l10n.elementaryos.org/projects/files/core/",
			TranslateURL:      "https://l10n.elementaryos.org/projects/files/core/sv/",
		},
		{
			Project: "Mail", ProjectSlug: "mail", Component: "app, desktop", ComponentSlug: "app",
			TranslatedPercent: 0,
			URL:               "https://l10n.elementaryos.org/projects/mail/app/",
			TranslateURL:      "https://l10n.elementaryos.org/projects/mail/app/sv/",
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatCSV, sampleRows()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	want := "project,component,translated_percent,translate_url\n" +
		"Files,core,87.5,https://l10n.elementaryos.org/projects/files/core/sv/\n" +
		"Mail,\"app, desktop\",0,https://l10n.elementaryos.org/projects/mail/app/sv/\n"
	if buf.String() != want {
		t.Fatalf("CSV output =\n%s\nwant\n%s", buf.String(), want)
	}

	buf.Reset()
	if err := Write(&buf, FormatCSV, nil); err != nil {
		t.Fatalf("Write(empty): %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("CSV of no rows = %q, want empty", buf.String())
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatJSON, sampleRows()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var got []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if len(got[0]) != 4 {
		t.Fatalf("record has keys %v, want exactly 4", got[0])
	}
	if got[0]["translated_percent"] != 87.5 || got[1]["component"] != "app, desktop" {
		t.Fatalf("unexpected records: %v", got)
	}
	if _, ok := got[0]["url"]; ok {
		t.Fatal("component url must not be exported")
	}

	buf.Reset()
	if err := Write(&buf, FormatJSON, nil); err != nil {
		t.Fatalf("Write(empty): %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Fatalf("JSON of no rows = %q, want []", buf.String())
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatYAML, sampleRows()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var got []Record
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	want := Flatten(sampleRows())
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("YAML round trip = %#v, want %#v", got, want)
	}
	if !strings.Contains(buf.String(), "translated_percent: 87.5") {
		t.Fatalf("YAML output missing percent:\n%s", buf.String())
	}
}

func TestFormat(t *testing.T) {
	var f Format
	if err := f.Set("YML"); err != nil || f != FormatYAML {
		t.Fatalf("Set(YML) = %v, format %q", err, f)
	}
	if err := f.Set("xlsx"); err == nil {
		t.Fatal("Set(xlsx) should fail")
	}

	if got, ok := FormatFromPath("/tmp/status.JSON"); !ok || got != FormatJSON {
		t.Fatalf("FormatFromPath(.JSON) = %q, %v", got, ok)
	}
	if _, ok := FormatFromPath("status"); ok {
		t.Fatal("FormatFromPath without extension should fail")
	}
	if got := DefaultFileName(FormatCSV); got != "translation-status.csv" {
		t.Fatalf("DefaultFileName(csv) = %q", got)
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := WriteFile(path, FormatJSON, sampleRows()); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), `"project": "Files"`) {
		t.Fatalf("unexpected file content:\n%s", data)
	}

	err = WriteFile(filepath.Join(t.TempDir(), "missing", "out.csv"), FormatCSV, sampleRows())
	if err == nil {
		t.Fatal("WriteFile into a missing directory should fail")
	}
}
