package platform

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/liangyou/seed/pkg/models"
)

const editorMSI = "https://vps2.flaxengine.com/store/builds/Package_1_9_06605/FlaxEditor.msi"

func testEngine(names ...string) models.Engine {
	engine := models.Engine{Name: "Flax 1.9", Version: models.MustParseVersion("1.9.6605")}
	for _, name := range names {
		engine.Packages = append(engine.Packages, models.Package{
			Name:       name,
			TargetPath: "Source/Platforms/" + name,
			URL:        "https://example.com/" + name + ".zip",
			Class:      Classify(name),
		})
	}
	return engine
}

func TestPlatformTableIsExhaustive(t *testing.T) {
	t.Parallel()

	for _, p := range models.AllPlatforms() {
		info, ok := platforms[p]
		if !ok {
			t.Fatalf("platform %s has no naming entry", p)
		}
		if info.token == "" || info.goos == "" {
			t.Fatalf("platform %s has incomplete entry: %#v", p, info)
		}
		if info.host && p != models.PlatformWindows && info.editorArchive == "" {
			t.Fatalf("host platform %s has no editor archive", p)
		}
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		want models.PackageClass
	}{
		{"Editor", models.PackageClass{Kind: models.PackageBase}},
		{"Windows Tools", models.PackageClass{Kind: models.PackageTools, Platform: models.PlatformWindows}},
		{"Linux Tools", models.PackageClass{Kind: models.PackageTools, Platform: models.PlatformLinux}},
		{"Mac Tools", models.PackageClass{Kind: models.PackageTools, Platform: models.PlatformMacOS}},
		{"Android Tools", models.PackageClass{Kind: models.PackageTools, Platform: models.PlatformAndroid}},
		{"iOS Tools", models.PackageClass{Kind: models.PackageTools, Platform: models.PlatformIOS}},
		{"Editor Linux", models.PackageClass{Kind: models.PackageTools, Platform: models.PlatformLinux}},
		{"Samples", models.PackageClass{Kind: models.PackageOther}},
	}

	for _, tc := range cases {
		if got := Classify(tc.name); got != tc.want {
			t.Fatalf("Classify(%q)=%#v want %#v", tc.name, got, tc.want)
		}
	}
}

func TestResolveBasePackage(t *testing.T) {
	t.Parallel()

	engine := testEngine("Windows Tools", "Editor", "Linux Tools")
	pkg, err := ResolveBasePackage(engine)
	if err != nil {
		t.Fatalf("ResolveBasePackage error: %v", err)
	}
	if pkg.Name != "Editor" {
		t.Fatalf("unexpected package: %s", pkg.Name)
	}

	for _, bad := range []models.Engine{
		testEngine("Windows Tools"),
		testEngine("Editor", "Linux Tools", "Editor"),
	} {
		_, err := ResolveBasePackage(bad)
		var resErr *ResolutionError
		if !errors.As(err, &resErr) || resErr.Kind != MissingBasePackage {
			t.Fatalf("expected MissingBasePackage, got %v", err)
		}
	}
}

func TestResolvePlatformTools(t *testing.T) {
	t.Parallel()

	engine := testEngine("Editor", "Windows Tools", "Linux Tools", "Android Tools")

	pkg, err := ResolvePlatformTools(engine, models.PlatformLinux)
	if err != nil {
		t.Fatalf("ResolvePlatformTools error: %v", err)
	}
	if pkg.Name != "Linux Tools" {
		t.Fatalf("unexpected package: %s", pkg.Name)
	}

	_, err = ResolvePlatformTools(engine, models.PlatformMacOS)
	if !errors.Is(err, &ResolutionError{Kind: UnsupportedPlatform}) {
		t.Fatalf("expected UnsupportedPlatform, got %v", err)
	}

	_, err = ResolvePlatformTools(engine, models.PlatformUnknown)
	if !errors.Is(err, &ResolutionError{Kind: UnsupportedPlatform}) {
		t.Fatalf("expected UnsupportedPlatform for unknown platform, got %v", err)
	}
}

func TestEditorURL(t *testing.T) {
	t.Parallel()

	pkg := models.Package{Name: "Editor", URL: editorMSI}
	base := "https://vps2.flaxengine.com/store/builds/Package_1_9_06605/"

	cases := []struct {
		platform models.Platform
		want     string
	}{
		{models.PlatformWindows, editorMSI},
		{models.PlatformLinux, base + "FlaxEditorLinux.zip"},
		{models.PlatformMacOS, base + "FlaxEditor.dmg"},
	}

	for _, tc := range cases {
		got, err := EditorURL(pkg, tc.platform)
		if err != nil {
			t.Fatalf("EditorURL(%s) error: %v", tc.platform, err)
		}
		if got != tc.want {
			t.Fatalf("EditorURL(%s)=%s want %s", tc.platform, got, tc.want)
		}
	}

	if _, err := EditorURL(pkg, models.PlatformAndroid); !errors.Is(err, &ResolutionError{Kind: UnsupportedPlatform}) {
		t.Fatalf("expected UnsupportedPlatform for android, got %v", err)
	}
	if _, err := EditorURL(models.Package{Name: "Editor", URL: "FlaxEditor.msi"}, models.PlatformLinux); !errors.Is(err, &ResolutionError{Kind: InvalidURL}) {
		t.Fatalf("expected InvalidURL, got %v", err)
	}
}

func TestPackageURLKeepsToolsURL(t *testing.T) {
	t.Parallel()

	engine := testEngine("Editor", "Linux Tools")
	tools := engine.Packages[1]
	got, err := PackageURL(tools, models.PlatformMacOS)
	if err != nil {
		t.Fatalf("PackageURL error: %v", err)
	}
	if got != tools.URL {
		t.Fatalf("tools url rewritten: %s", got)
	}
}

func TestInstallDir(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	engine := testEngine("Editor", "Linux Tools")

	dir, err := InstallDir(root, engine, engine.Packages[0])
	if err != nil {
		t.Fatalf("InstallDir error: %v", err)
	}
	if dir != filepath.Join(root, "Flax 1.9") {
		t.Fatalf("unexpected base dir: %s", dir)
	}

	dir, err = InstallDir(root, engine, engine.Packages[1])
	if err != nil {
		t.Fatalf("InstallDir error: %v", err)
	}
	if dir != filepath.Join(root, "Flax 1.9", "Source", "Platforms", "Linux Tools") {
		t.Fatalf("unexpected tools dir: %s", dir)
	}

	escape := models.Package{Name: "Linux Tools", TargetPath: "../../outside"}
	if _, err := InstallDir(root, engine, escape); !errors.Is(err, &ResolutionError{Kind: InvalidTargetPath}) {
		t.Fatalf("expected InvalidTargetPath, got %v", err)
	}

	escapingEngine := models.Engine{Name: "../elsewhere"}
	if _, err := InstallDir(root, escapingEngine, engine.Packages[0]); !errors.Is(err, &ResolutionError{Kind: InvalidTargetPath}) {
		t.Fatalf("expected InvalidTargetPath for engine name, got %v", err)
	}
}

func TestClassOfPrefersCarriedClass(t *testing.T) {
	t.Parallel()

	carried := models.Package{Name: "LinuxSamples", Class: models.PackageClass{Kind: models.PackageTools, Platform: models.PlatformAndroid}}
	if got := ClassOf(carried); got != carried.Class {
		t.Fatalf("ClassOf ignored carried class: %+v", got)
	}

	bare := models.Package{Name: "Linux"}
	if got := ClassOf(bare); got.Kind != models.PackageTools || got.Platform != models.PlatformLinux {
		t.Fatalf("ClassOf should classify packages built without a class: %+v", got)
	}
}
