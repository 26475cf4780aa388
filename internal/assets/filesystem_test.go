package assets

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// writeAsset creates dir/rel with content.
func writeAsset(t *testing.T, dir, rel, content string) {
	t.Helper()

	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}
}

func TestNewFilesystemLoader(t *testing.T) {
	t.Parallel()

	t.Run("valid directory", func(t *testing.T) {
		t.Parallel()

		loader, err := NewFilesystemLoader(t.TempDir())
		if err != nil {
			t.Fatalf("NewFilesystemLoader() error = %v", err)
		}
		if !filepath.IsAbs(loader.BasePath()) {
			t.Errorf("BasePath() = %q, want absolute", loader.BasePath())
		}
	})

	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"empty path", func(t *testing.T) string { return "" }},
		{"missing directory", func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent") }},
		{"regular file", func(t *testing.T) string {
			dir := t.TempDir()
			writeAsset(t, dir, "file.txt", "x")
			return filepath.Join(dir, "file.txt")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewFilesystemLoader(tt.path(t))
			if !errors.Is(err, ErrInvalidBasePath) {
				t.Errorf("NewFilesystemLoader() error = %v, want ErrInvalidBasePath", err)
			}
		})
	}
}

func TestFilesystemLoader_Load(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeAsset(t, dir, "styles/mono.css", "pre { color: red; }")
	writeAsset(t, dir, "templates/page.html", "<main>{{.Body}}</main>")

	loader, err := NewFilesystemLoader(dir)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	if got, err := loader.LoadStyle("mono"); err != nil || got != "pre { color: red; }" {
		t.Errorf("LoadStyle(mono) = %q, %v", got, err)
	}
	if got, err := loader.LoadTemplate(PageTemplateName); err != nil || got != "<main>{{.Body}}</main>" {
		t.Errorf("LoadTemplate(page) = %q, %v", got, err)
	}
	if _, err := loader.LoadStyle("absent"); !errors.Is(err, ErrStyleNotFound) {
		t.Errorf("LoadStyle(absent) error = %v, want ErrStyleNotFound", err)
	}
	if _, err := loader.LoadTemplate("absent"); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("LoadTemplate(absent) error = %v, want ErrTemplateNotFound", err)
	}
	if _, err := loader.LoadStyle("../mono"); !errors.Is(err, ErrInvalidAssetName) {
		t.Errorf("LoadStyle(../mono) error = %v, want ErrInvalidAssetName", err)
	}
}

func TestFilesystemLoader_SymlinkEscape(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("symlinks need extra privileges on windows")
	}

	outside := t.TempDir()
	writeAsset(t, outside, "secret.css", "body { display: none; }")

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "styles"), 0o750); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := os.Symlink(filepath.Join(outside, "secret.css"), filepath.Join(dir, "styles", "leak.css")); err != nil {
		t.Fatalf("setup: %v", err)
	}

	loader, err := NewFilesystemLoader(dir)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if _, err := loader.LoadStyle("leak"); !errors.Is(err, ErrPathTraversal) {
		t.Errorf("LoadStyle(leak) error = %v, want ErrPathTraversal", err)
	}
}
