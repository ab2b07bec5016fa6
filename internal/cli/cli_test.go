package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/blueprints/internal/api"
	"github.com/matzehuels/blueprints/pkg/docgraph"
	"github.com/matzehuels/blueprints/pkg/docstore"
	bperrors "github.com/matzehuels/blueprints/pkg/errors"
	"github.com/matzehuels/blueprints/pkg/graphio"
)

// badgerConfig writes a config selecting an on-disk badger graph in a
// temporary directory, so state survives between command invocations.
func badgerConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "blueprints.toml")
	data := "backend = \"badger\"\n\n[badger]\npath = \"graph.db\"\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// runCLI executes one command line and returns its standard output.
func runCLI(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	captureStderr(t)
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, cfgPath string, args ...string) string {
	t.Helper()
	out, err := runCLI(t, cfgPath, args...)
	if err != nil {
		t.Fatalf("%s: %v", strings.Join(args, " "), err)
	}
	return out
}

func TestVertexAndEdgeCommands(t *testing.T) {
	cfg := badgerConfig(t)

	mustRun(t, cfg, "vertex", "add", "alice")
	mustRun(t, cfg, "vertex", "add", "bob")
	mustRun(t, cfg, "vertex", "set", "alice", "age", "42")

	if out := mustRun(t, cfg, "vertex", "get", "alice"); !strings.Contains(out, "age") || !strings.Contains(out, "42") {
		t.Errorf("vertex get output = %q, want age 42", out)
	}

	mustRun(t, cfg, "edge", "add", "alice", "knows", "bob")
	mustRun(t, cfg, "edge", "set", "alice|knows|bob", "since", "2020")

	if out := mustRun(t, cfg, "edge", "get", "alice|knows|bob"); !strings.Contains(out, "since") {
		t.Errorf("edge get output = %q, want since", out)
	}
	if out := mustRun(t, cfg, "edge", "out", "alice", "knows"); !strings.Contains(out, "knows") {
		t.Errorf("edge out output = %q, want knows edge", out)
	}
	if out := mustRun(t, cfg, "edge", "in", "alice"); !strings.Contains(out, "No edges") {
		t.Errorf("edge in output = %q, want no edges", out)
	}

	mustRun(t, cfg, "edge", "unset", "alice|knows|bob", "since")
	mustRun(t, cfg, "vertex", "unset", "alice", "age")
	mustRun(t, cfg, "vertex", "rm", "alice")

	_, err := runCLI(t, cfg, "vertex", "get", "alice")
	if !bperrors.Is(err, bperrors.ErrCodeNotFound) {
		t.Errorf("vertex get after rm: err = %v, want NOT_FOUND", err)
	}
	_, err = runCLI(t, cfg, "edge", "get", "alice|knows|bob")
	if !bperrors.Is(err, bperrors.ErrCodeNotFound) {
		t.Errorf("edge get after cascade: err = %v, want NOT_FOUND", err)
	}
	if out := mustRun(t, cfg, "vertex", "list"); !strings.Contains(out, "bob") {
		t.Errorf("vertex list output = %q, want bob", out)
	}
}

func TestCommandErrors(t *testing.T) {
	cfg := badgerConfig(t)

	tests := []struct {
		name string
		args []string
		code bperrors.Code
	}{
		{"malformed edge id", []string{"edge", "get", "a|b"}, bperrors.ErrCodeMalformedID},
		{"missing endpoint", []string{"edge", "add", "a", "knows", "b"}, bperrors.ErrCodeNotFound},
		{"bad export format", []string{"export", "--format", "png"}, bperrors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, cfg, tt.args...)
			if !bperrors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestClear(t *testing.T) {
	cfg := badgerConfig(t)
	mustRun(t, cfg, "vertex", "add", "a")
	mustRun(t, cfg, "clear", "--yes")

	if out := mustRun(t, cfg, "vertex", "list"); !strings.Contains(out, "No vertices") {
		t.Errorf("vertex list after clear = %q, want none", out)
	}
}

func TestExportImport(t *testing.T) {
	src := badgerConfig(t)
	mustRun(t, src, "vertex", "add", "a")
	mustRun(t, src, "vertex", "add", "b")
	mustRun(t, src, "edge", "add", "a", "knows", "b")

	snapPath := filepath.Join(t.TempDir(), "graph.json")
	mustRun(t, src, "export", "-o", snapPath)

	snap, err := graphio.ReadJSONFile(snapPath)
	if err != nil {
		t.Fatalf("ReadJSONFile: %v", err)
	}
	if len(snap.Vertices) != 2 || len(snap.Edges) != 1 {
		t.Fatalf("snapshot = %d vertices, %d edges, want 2, 1", len(snap.Vertices), len(snap.Edges))
	}

	dst := badgerConfig(t)
	mustRun(t, dst, "import", snapPath)
	if out := mustRun(t, dst, "edge", "out", "a"); !strings.Contains(out, "knows") {
		t.Errorf("edge out after import = %q, want knows", out)
	}

	if out := mustRun(t, src, "export", "--format", "dot"); !strings.HasPrefix(out, "digraph") {
		t.Errorf("dot export = %q, want digraph", out)
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]string{
		"graph.json": formatJSON,
		"graph.dot":  formatDOT,
		"graph.gv":   formatDOT,
		"graph.svg":  formatSVG,
		"graph.txt":  "",
	}
	for path, want := range tests {
		if got := formatFromPath(path); got != want {
			t.Errorf("formatFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestDemo(t *testing.T) {
	g := docgraph.New(docstore.NewMemoryStore(), docgraph.WithLogger(log.New(io.Discard)))

	var buf bytes.Buffer
	if err := runDemo(context.Background(), g, &buf); err != nil {
		t.Fatalf("runDemo: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"|son|t:1", "labeled son: 2", "In edges of t:1: 2", "first son"} {
		if !strings.Contains(out, want) {
			t.Errorf("demo output missing %q:\n%s", want, out)
		}
	}
}

func TestServe(t *testing.T) {
	g := docgraph.New(docstore.NewMemoryStore(), docgraph.WithLogger(log.New(io.Discard)))
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(withLogger(context.Background(), log.New(io.Discard)))
	errc := make(chan error, 1)
	go func() { errc <- serve(ctx, ln, api.New(g, log.New(io.Discard))) }()

	resp, err := http.Post("http://"+ln.Addr().String()+"/vertices", "application/json", strings.NewReader(`{"id":"a"}`))
	if err != nil {
		t.Fatalf("POST /vertices: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	cancel()
	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("serve() = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"42", float64(42)},
		{"true", true},
		{`"quoted"`, "quoted"},
		{"alice", "alice"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := parseValue(tt.in); got != tt.want {
			t.Errorf("parseValue(%q) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

func TestConfirmModel(t *testing.T) {
	tests := []struct {
		name string
		keys []tea.KeyMsg
		want bool
	}{
		{"y", []tea.KeyMsg{{Type: tea.KeyRunes, Runes: []rune{'y'}}}, true},
		{"n", []tea.KeyMsg{{Type: tea.KeyRunes, Runes: []rune{'n'}}}, false},
		{"enter defaults to no", []tea.KeyMsg{{Type: tea.KeyEnter}}, false},
		{"toggle then enter", []tea.KeyMsg{{Type: tea.KeyRight}, {Type: tea.KeyEnter}}, true},
		{"esc", []tea.KeyMsg{{Type: tea.KeyEsc}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m tea.Model = newConfirmModel("Proceed?")
			for _, k := range tt.keys {
				m, _ = m.Update(k)
			}
			got := m.(confirmModel)
			if !got.done {
				t.Fatal("done = false, want true")
			}
			if got.confirmed != tt.want {
				t.Errorf("confirmed = %v, want %v", got.confirmed, tt.want)
			}
		})
	}
}

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info level", log.InfoLevel, func(l *log.Logger) { l.Info("test") }, true},
		{"debug at info level", log.InfoLevel, func(l *log.Logger) { l.Debug("test") }, false},
		{"debug at debug level", log.DebugLevel, func(l *log.Logger) { l.Debug("test") }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("got log output = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	newProgress(newLogger(&buf, log.InfoLevel)).done("Imported 3 vertices")
	if !strings.Contains(buf.String(), "Imported 3 vertices") {
		t.Errorf("progress output = %q, want message", buf.String())
	}
}

func TestLoggerFromContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("loggerFromContext without logger should return log.Default()")
	}
	custom := newLogger(io.Discard, log.InfoLevel)
	if loggerFromContext(withLogger(context.Background(), custom)) != custom {
		t.Error("loggerFromContext should return the attached logger")
	}
}

func TestVerboseFlag(t *testing.T) {
	captureStderr(t)
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetOut(io.Discard)
	root.SetArgs([]string{"--verbose", "version"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatal(err)
	}
	if c.Logger.GetLevel() != LogDebug {
		t.Errorf("level = %v, want debug", c.Logger.GetLevel())
	}
}

func TestCompletionSkipsConfig(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.toml")
	for _, shell := range completionShells {
		t.Run(shell, func(t *testing.T) {
			out, err := runCLI(t, missing, "completion", shell)
			if err != nil {
				t.Fatalf("completion %s: %v", shell, err)
			}
			if !strings.Contains(out, "blueprints") {
				t.Errorf("completion %s output does not mention blueprints", shell)
			}
		})
	}

	if _, err := runCLI(t, missing, "vertex", "list"); err == nil {
		t.Error("vertex list with a missing config succeeded, want error")
	}
}
