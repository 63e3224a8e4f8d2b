package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/liangyou/seed/pkg/models"
)

type engineList struct {
	Engines []models.Engine `json:"engines" yaml:"engines" toml:"engines"`
}

func sample() engineList {
	required := true
	return engineList{Engines: []models.Engine{{
		Name:    "Flax 1.9",
		Version: models.MustParseVersion("1.9.6605"),
		Packages: []models.Package{{
			Name:     "Editor",
			Required: &required,
			URL:      "https://cdn.example.com/FlaxEditor.msi",
			Class:    models.PackageClass{Kind: models.PackageBase},
		}},
	}}}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	cases := map[string]Format{
		"":     FormatText,
		"text": FormatText,
		"JSON": FormatJSON,
		"yml":  FormatYAML,
		"yaml": FormatYAML,
		"toml": FormatTOML,
	}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q)=%q,%v want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := NewWriter(&buf, FormatJSON).Write(sample()); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	var decoded struct {
		Engines []struct {
			Version  string `json:"version"`
			Packages []map[string]any
		} `json:"engines"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid json %q: %v", buf.String(), err)
	}
	if decoded.Engines[0].Version != "1.9.6605" {
		t.Fatalf("version should be a string, got %q", decoded.Engines[0].Version)
	}
	if _, ok := decoded.Engines[0].Packages[0]["class"]; ok {
		t.Fatal("class must not appear in json output")
	}
}

func TestWriteYAML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := NewWriter(&buf, FormatYAML).Write(sample()); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	var decoded map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid yaml: %v", err)
	}
	if !strings.Contains(buf.String(), "version: 1.9.6605") || !strings.Contains(buf.String(), "kind: base") {
		t.Fatalf("unexpected yaml:\n%s", buf.String())
	}
}

func TestWriteTOML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := NewWriter(&buf, FormatTOML).Write(sample()); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	var decoded map[string]any
	if err := toml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid toml %q: %v", buf.String(), err)
	}
	if !strings.Contains(buf.String(), "1.9.6605") {
		t.Fatalf("unexpected toml:\n%s", buf.String())
	}

	buf.Reset()
	if err := NewWriter(&buf, FormatTOML).Write([]string{"a", "b"}); err != nil {
		t.Fatalf("Write slice error: %v", err)
	}
	if !strings.Contains(buf.String(), "items = ") {
		t.Fatalf("slices should be wrapped in a table, got %q", buf.String())
	}
}

func TestWriteText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewWriter(&buf, FormatText)
	if !w.IsText() {
		t.Fatal("expected text writer")
	}
	if err := w.Write([]string{"Flax 1.10", "Flax 1.9"}); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if err := w.Write(models.MustParseVersion("1.9.6605")); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if buf.String() != "Flax 1.10\nFlax 1.9\n1.9.6605\n" {
		t.Fatalf("unexpected text output: %q", buf.String())
	}
}
