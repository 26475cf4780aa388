package main

import (
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestRender_Stdin - Single text from standard input
// ---------------------------------------------------------------------------

func TestRender_Stdin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		stdin    string
		args     []string
		wantCode int
		want     string
	}{
		{
			name:     "no formatter",
			stdin:    "Example <code>a  b</code>",
			args:     []string{"--format", "none"},
			wantCode: ExitSuccess,
			want:     "Example <code>a&nbsp;&nbsp;b</code>",
		},
		{
			name:     "markdown formatter",
			stdin:    "Example <code>a  b</code>",
			args:     nil,
			wantCode: ExitSuccess,
			want:     "<p>Example <code>a&nbsp;&nbsp;b</code></p>\n",
		},
		{
			name:     "multiline code wrapped",
			stdin:    "<code>one\ntwo</code>",
			args:     []string{"--format", "none", "--channel", "comment"},
			wantCode: ExitSuccess,
			want:     "<pre><code>one\ntwo</code></pre>",
		},
		{
			name:     "unknown channel",
			stdin:    "x",
			args:     []string{"--channel", "title"},
			wantCode: ExitUsage,
		},
		{
			name:     "unknown format",
			stdin:    "x",
			args:     []string{"--format", "rst"},
			wantCode: ExitUsage,
		},
		{
			name:     "too many workers",
			stdin:    "x",
			args:     []string{"--workers", "9999"},
			wantCode: ExitUsage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(tt.stdin)
			args := append([]string{"render", "--store", "memory"}, tt.args...)
			code := run(t, env, args...)
			if code != tt.wantCode {
				t.Fatalf("exit code = %d, want %d (stderr: %s)", code, tt.wantCode, env.stderr)
			}
			if tt.wantCode == ExitSuccess && env.stdout.String() != tt.want {
				t.Errorf("stdout = %q, want %q", env.stdout, tt.want)
			}
		})
	}
}

func TestRender_StdinToOutputDir(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "out")
	env := newTestEnv("<pre>a\tb</pre>")
	if code := run(t, env, "render", "--store", "memory", "--format", "none", "-o", out); code != ExitSuccess {
		t.Fatalf("exit code = %d (stderr: %s)", code, env.stderr)
	}

	got, err := os.ReadFile(filepath.Join(out, "stdin.html"))
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if string(got) != "<pre>a&nbsp;&nbsp;b</pre>" {
		t.Errorf("output = %q", got)
	}
}

// ---------------------------------------------------------------------------
// TestRender_Files - Batch rendering
// ---------------------------------------------------------------------------

func TestRender_FilesToOutputDir(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{
		"a.md": "A <code>x  y</code>",
		"b.md": "B <pre>p  q</pre>",
		"c.md": "C plain",
	})
	out := filepath.Join(t.TempDir(), "html")

	env := newTestEnv("")
	code := run(t, env, "render", "--store", "memory", "-w", "2", "-o", out,
		filepath.Join(dir, "a.md"), filepath.Join(dir, "b.md"), filepath.Join(dir, "c.md"))
	if code != ExitSuccess {
		t.Fatalf("exit code = %d (stderr: %s)", code, env.stderr)
	}

	want := map[string]string{
		"a.html": "<p>A <code>x&nbsp;&nbsp;y</code></p>\n",
		"b.html": "<p>B <pre>p&nbsp;&nbsp;q</pre></p>\n",
		"c.html": "<p>C plain</p>\n",
	}
	for name, content := range want {
		got, err := os.ReadFile(filepath.Join(out, name))
		if err != nil {
			t.Errorf("reading %s: %v", name, err)
			continue
		}
		if string(got) != content {
			t.Errorf("%s = %q, want %q", name, got, content)
		}
		if !strings.Contains(env.stdout.String(), "Created "+filepath.Join(out, name)) {
			t.Errorf("stdout missing Created line for %s: %q", name, env.stdout)
		}
	}
	if !strings.Contains(env.stderr.String(), "3 succeeded, 0 failed") {
		t.Errorf("stderr missing summary: %q", env.stderr)
	}
}

func TestRender_FilesToStdoutKeepOrder(t *testing.T) {
	t.Parallel()

	files := map[string]string{}
	var args []string
	var want strings.Builder
	names := []string{"one", "two", "three", "four", "five", "six"}
	for _, n := range names {
		files[n+".txt"] = n + " <code>" + n + "</code>\n"
		want.WriteString(n + " <code>" + n + "</code>\n")
	}
	dir := writeFiles(t, files)
	for _, n := range names {
		args = append(args, filepath.Join(dir, n+".txt"))
	}

	env := newTestEnv("")
	code := run(t, env, append([]string{"render", "--store", "memory", "--format", "none", "-q", "-w", "3"}, args...)...)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d (stderr: %s)", code, env.stderr)
	}
	if env.stdout.String() != want.String() {
		t.Errorf("stdout = %q, want %q", env.stdout, want.String())
	}
}

func TestRender_MissingFile(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{"ok.md": "fine"})
	out := t.TempDir()

	env := newTestEnv("")
	code := run(t, env, "render", "--store", "memory", "-o", out,
		filepath.Join(dir, "ok.md"), filepath.Join(dir, "missing.md"))
	if code != ExitIO {
		t.Errorf("exit code = %d, want %d", code, ExitIO)
	}
	if !strings.Contains(env.stderr.String(), "FAILED") {
		t.Errorf("stderr missing FAILED line: %q", env.stderr)
	}
	// The readable file is still rendered.
	if _, err := os.Stat(filepath.Join(out, "ok.html")); err != nil {
		t.Errorf("ok.html not written: %v", err)
	}
}

func TestRender_UsesStoredOptions(t *testing.T) {
	t.Parallel()

	storeDir := t.TempDir()

	env := newTestEnv("")
	if code := run(t, env, "config", "set", "use_nbsp_for_spaces=false", "--store", "file", "--store-path", storeDir, "-q"); code != ExitSuccess {
		t.Fatalf("config set exit code = %d (stderr: %s)", code, env.stderr)
	}

	env = newTestEnv("<code>a  b</code>")
	if code := run(t, env, "render", "--store", "file", "--store-path", storeDir, "--format", "none"); code != ExitSuccess {
		t.Fatalf("render exit code = %d (stderr: %s)", code, env.stderr)
	}
	if got := env.stdout.String(); got != "<code>a  b</code>" {
		t.Errorf("stdout = %q, want spaces kept as is", got)
	}
}

func TestRender_DisabledChannel(t *testing.T) {
	t.Parallel()

	storeDir := t.TempDir()
	env := newTestEnv("")
	if code := run(t, env, "config", "set", "preserve_in_comments=no", "--store", "file", "--store-path", storeDir, "-q"); code != ExitSuccess {
		t.Fatalf("config set exit code = %d (stderr: %s)", code, env.stderr)
	}

	env = newTestEnv("<code>a  b</code>")
	if code := run(t, env, "render", "--store", "file", "--store-path", storeDir, "--format", "none", "--channel", "comment"); code != ExitSuccess {
		t.Fatalf("render exit code = %d (stderr: %s)", code, env.stderr)
	}
	if got := env.stdout.String(); got != "<code>a  b</code>" {
		t.Errorf("stdout = %q, want input unchanged", got)
	}
}

func TestResolveWorkers(t *testing.T) {
	t.Parallel()

	if got := resolveWorkers(0); got != runtime.GOMAXPROCS(0) {
		t.Errorf("resolveWorkers(0) = %d, want GOMAXPROCS", got)
	}
	if got := resolveWorkers(3); got != 3 {
		t.Errorf("resolveWorkers(3) = %d, want 3", got)
	}
}

// ---------------------------------------------------------------------------
// TestRender_Page - Standalone pages and link rebasing
// ---------------------------------------------------------------------------

func TestRender_Page(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{"notes.md": "Try <code>a  b</code>"})
	out := filepath.Join(t.TempDir(), "site")

	env := newTestEnv("")
	code := run(t, env, "render", "--store", "memory", "--page", "-o", out, filepath.Join(dir, "notes.md"))
	if code != ExitSuccess {
		t.Fatalf("exit code = %d (stderr: %s)", code, env.stderr)
	}

	got, err := os.ReadFile(filepath.Join(out, "notes.html"))
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	for _, want := range []string{
		"<!DOCTYPE html>",
		"<title>notes</title>",
		"<style>",
		"<p>Try <code>a&nbsp;&nbsp;b</code></p>",
	} {
		if !strings.Contains(string(got), want) {
			t.Errorf("page missing %q:\n%s", want, got)
		}
	}
}

func TestRender_PageCustomAssets(t *testing.T) {
	t.Parallel()

	assetsDir := writeFiles(t, map[string]string{
		"styles/mono.css":     "pre { font: 12px monospace; }",
		"templates/page.html": "<main data-title=\"{{.Title}}\"><style>{{.CSS}}</style>{{.Body}}</main>",
	})

	env := newTestEnv("<pre>x</pre>")
	code := run(t, env, "render", "--store", "memory", "--format", "none",
		"--page", "--style", "mono", "--assets", assetsDir)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d (stderr: %s)", code, env.stderr)
	}

	want := `<main data-title="stdin"><style>pre { font: 12px monospace; }</style><pre>x</pre></main>`
	if got := env.stdout.String(); got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
}

func TestRender_PageErrors(t *testing.T) {
	t.Parallel()

	badTemplate := writeFiles(t, map[string]string{"templates/page.html": "{{.Body"})

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStderr string
	}{
		{
			name:       "unknown style",
			args:       []string{"--page", "--style", "neon"},
			wantCode:   ExitUsage,
			wantStderr: "hint: available: default, plain",
		},
		{
			name:       "missing assets dir",
			args:       []string{"--page", "--assets", filepath.Join(t.TempDir(), "absent")},
			wantCode:   ExitUsage,
			wantStderr: "invalid base path",
		},
		{
			name:       "broken template",
			args:       []string{"--page", "--assets", badTemplate},
			wantCode:   ExitUsage,
			wantStderr: "invalid page template",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv("x")
			code := run(t, env, append([]string{"render", "--store", "memory"}, tt.args...)...)
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, tt.wantCode, env.stderr)
			}
			if !strings.Contains(env.stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want containing %q", env.stderr, tt.wantStderr)
			}
		})
	}
}

func TestRender_RebaseLinks(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	src := filepath.Join(root, "posts")
	if err := os.MkdirAll(src, 0o750); err != nil {
		t.Fatalf("setup: %v", err)
	}
	input := filepath.Join(src, "post.md")
	if err := os.WriteFile(input, []byte("![chart](img/chart.png)\n\n<code>x  y</code>"), 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}
	out := filepath.Join(root, "public")

	env := newTestEnv("")
	code := run(t, env, "render", "--store", "memory", "--rebase-links", "-o", out, input)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d (stderr: %s)", code, env.stderr)
	}

	got, err := os.ReadFile(filepath.Join(out, "post.html"))
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !strings.Contains(string(got), `src="../posts/img/chart.png"`) {
		t.Errorf("image not rebased: %s", got)
	}
	if !strings.Contains(string(got), "<code>x&nbsp;&nbsp;y</code>") {
		t.Errorf("preserved region altered: %s", got)
	}
}

func TestRender_RebaseLinksToStdout(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{
		filepath.Join("posts", "post.md"): "![chart](img/chart.png)\n\n<code>x  y</code>",
	})
	input := filepath.Join(dir, "posts", "post.md")

	env := newTestEnv("")
	code := run(t, env, "render", "--store", "memory", "--rebase-links", input)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d (stderr: %s)", code, env.stderr)
	}

	imgPath := filepath.ToSlash(filepath.Join(dir, "posts", "img", "chart.png"))
	if !strings.HasPrefix(imgPath, "/") {
		imgPath = "/" + imgPath
	}
	want := (&url.URL{Scheme: "file", Path: imgPath}).String()
	got := env.stdout.String()
	if !strings.Contains(got, `src="`+want+`"`) {
		t.Errorf("image not rebased to %q:\n%s", want, got)
	}
	if !strings.Contains(got, "<code>x&nbsp;&nbsp;y</code>") {
		t.Errorf("preserved region altered: %s", got)
	}
}
