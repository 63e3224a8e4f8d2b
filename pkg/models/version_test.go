package models

import (
	"encoding/json"
	"sort"
	"testing"
)

func TestParseVersion(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "1.9.6605", want: "1.9.6605"},
		{input: "1.10", want: "1.10"},
		{input: " 2.0.0.1 ", want: "2.0.0.1"},
		{input: "7", want: "7"},
		{input: "", wantErr: true},
		{input: "1..2", wantErr: true},
		{input: "1.9-beta", wantErr: true},
		{input: "v1.9", wantErr: true},
		{input: "1.2.3.4.5", wantErr: true},
	}

	for _, tc := range cases {
		got, err := ParseVersion(tc.input)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseVersion(%q) expected error, got %v", tc.input, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseVersion(%q) error: %v", tc.input, err)
		}
		if got.String() != tc.want {
			t.Fatalf("ParseVersion(%q)=%s want %s", tc.input, got, tc.want)
		}
	}
}

func TestVersionCompare(t *testing.T) {
	t.Parallel()

	cases := []struct {
		a, b string
		want int
	}{
		{"1.10.0", "1.9.0", 1},
		{"1.9.6605", "1.9.6606", -1},
		{"1.9", "1.9.0", 0},
		{"2.0", "1.99.9999", 1},
		{"1.9.0.1", "1.9", 1},
		{"1.8", "1.8", 0},
	}

	for _, tc := range cases {
		a := MustParseVersion(tc.a)
		b := MustParseVersion(tc.b)
		if got := a.Compare(b); got != tc.want {
			t.Fatalf("Compare(%s,%s)=%d want %d", tc.a, tc.b, got, tc.want)
		}
		if got := b.Compare(a); got != -tc.want {
			t.Fatalf("Compare(%s,%s)=%d want %d", tc.b, tc.a, got, -tc.want)
		}
	}
}

func TestVersionOrderingMatchesNumeric(t *testing.T) {
	t.Parallel()

	inputs := []string{"1.9.0", "1.10.0", "1.2.5", "0.9", "1.10.1", "1.9.6605"}
	versions := make([]Version, 0, len(inputs))
	for _, in := range inputs {
		versions = append(versions, MustParseVersion(in))
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i].Less(versions[j]) })

	want := []string{"0.9", "1.2.5", "1.9.0", "1.9.6605", "1.10.0", "1.10.1"}
	for i, v := range versions {
		if v.String() != want[i] {
			t.Fatalf("unexpected order at %d: got %s want %s", i, v, want[i])
		}
	}
}

func TestVersionJSON(t *testing.T) {
	t.Parallel()

	var payload struct {
		Version Version `json:"version"`
	}
	if err := json.Unmarshal([]byte(`{"version":"1.9.6605"}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !payload.Version.Equal(MustParseVersion("1.9.6605")) {
		t.Fatalf("unexpected version: %s", payload.Version)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"version":"1.9.6605"}` {
		t.Fatalf("unexpected json: %s", data)
	}

	if err := json.Unmarshal([]byte(`{"version":1.9}`), &payload); err == nil {
		t.Fatal("expected error for numeric version")
	}
}

func TestParsePlatform(t *testing.T) {
	t.Parallel()

	cases := map[string]Platform{
		"windows": PlatformWindows,
		"Linux":   PlatformLinux,
		"darwin":  PlatformMacOS,
		"macOS":   PlatformMacOS,
		"android": PlatformAndroid,
		"ios":     PlatformIOS,
	}
	for input, want := range cases {
		got, err := ParsePlatform(input)
		if err != nil {
			t.Fatalf("ParsePlatform(%q) error: %v", input, err)
		}
		if got != want {
			t.Fatalf("ParsePlatform(%q)=%s want %s", input, got, want)
		}
	}

	if _, err := ParsePlatform("plan9"); err == nil {
		t.Fatal("expected error for unknown platform")
	}
}
