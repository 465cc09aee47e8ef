package main

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/soochol/droidflow/internal/cli"
	"github.com/soochol/droidflow/internal/config"
	"github.com/soochol/droidflow/internal/droidflow"
	"github.com/soochol/droidflow/internal/notify"
	"github.com/soochol/droidflow/internal/secret"
)

func setup(t *testing.T) string {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	dir := t.TempDir()
	roots := filepath.Join(dir, "workflows")
	if err := os.Mkdir(roots, 0o755); err != nil {
		t.Fatal(err)
	}
	doc := "name: test.script.home\nactions:\n  go:\n    - press: home\n    - expect: foreground != app\n"
	if err := os.WriteFile(filepath.Join(roots, "home.yaml"), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DROIDFLOW_CONFIG", filepath.Join(dir, "absent.yaml"))
	t.Setenv("WORKFLOW_EXTRA_ROOTS", roots)
	t.Setenv("MESSAGING_CONFIG_PATH", "")
	t.Setenv("ANDROID_DEVICE_ID", "")
	return dir
}

func TestRunExitCodes(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"hello login", []string{"--dry-run", "--wf", "workflow.hello.world", "--action", "login"}, 0},
		{"hello unknown action", []string{"--dry-run", "--wf", "workflow.hello.world", "--action", "unknown"}, 1},
		{"script workflow", []string{"--dry-run", "--workflow", "test.script.home", "-a", "go", "--return-home"}, 0},
		{"unknown workflow", []string{"--dry-run", "--wf", "workflow.missing"}, 1},
		{"missing workflow", nil, 1},
		{"bad flag", []string{"--wf", "workflow.hello.world", "--nope"}, 1},
		{"help", []string{"--help"}, 0},
		{"plugin flag", []string{"--dry-run", "--wf", "workflow.hello.world", "--hello-world-greeting", "hey"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setup(t)
			if got := run(tt.args, io.Discard, io.Discard); got != tt.want {
				t.Errorf("run(%q) = %d, want %d", tt.args, got, tt.want)
			}
		})
	}
}

func TestRunList(t *testing.T) {
	setup(t)
	var stdout bytes.Buffer
	if got := run([]string{"--list"}, &stdout, io.Discard); got != 0 {
		t.Fatalf("run(--list) = %d, want 0", got)
	}
	out := stdout.String()
	for _, want := range []string{"workflow.hello.world", "login,start,status,stop", "test.script.home"} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}
}

func TestRunMalformedMessagingConfig(t *testing.T) {
	dir := setup(t)
	path := filepath.Join(dir, "messaging.json")
	if err := os.WriteFile(path, []byte(`{"account_sid": "AC1"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	var stderr bytes.Buffer
	got := run([]string{"--wf", "workflow.hello.world", "--notify-config", path}, io.Discard, &stderr)
	if got != 1 {
		t.Fatalf("run() = %d, want 1", got)
	}
	if !strings.Contains(stderr.String(), "missing required field") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestRunSealSecret(t *testing.T) {
	setup(t)
	t.Setenv(secret.EnvKey, "test-passphrase")

	var stdout bytes.Buffer
	if got := runWithInput([]string{"--seal-secret"}, strings.NewReader("tw-token\n"), &stdout, io.Discard); got != 0 {
		t.Fatalf("run(--seal-secret) = %d, want 0", got)
	}
	sealed := strings.TrimSpace(stdout.String())
	box, err := secret.NewBox("test-passphrase")
	if err != nil {
		t.Fatal(err)
	}
	opened, err := box.Open(sealed)
	if err != nil {
		t.Fatalf("Open(%q): %v", sealed, err)
	}
	if opened != "tw-token" {
		t.Errorf("opened = %q, want tw-token", opened)
	}

	t.Setenv(secret.EnvKey, "")
	if got := runWithInput([]string{"--seal-secret"}, strings.NewReader("x"), io.Discard, io.Discard); got != 1 {
		t.Errorf("run(--seal-secret) without key = %d, want 1", got)
	}
}

func TestBuildNotifierMissingConfig(t *testing.T) {
	setup(t)
	box, err := secret.NewBox("")
	if err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(t.TempDir(), "messaging.json")

	tests := []struct {
		name      string
		flagPath  string
		envPath   string
		wantFatal bool
	}{
		{"default location absent", "", "", false},
		{"flag path absent", missing, "", true},
		{"env path absent", "", missing, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appCfg := &config.Config{Notify: config.NotifyConfig{Path: config.DefaultMessagingPath}}
			appCfg.ApplyEnv(func(key string) string {
				if key == config.EnvMessagingPath {
					return tt.envPath
				}
				return ""
			})
			n, err := buildNotifier(&cli.Options{NotifyConfig: tt.flagPath}, appCfg, box)
			if tt.wantFatal {
				if !errors.Is(err, droidflow.ErrConfiguration) || !errors.Is(err, os.ErrNotExist) {
					t.Fatalf("buildNotifier() err = %v, want configuration error for missing file", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("buildNotifier() err = %v", err)
			}
			if _, ok := n.(notify.Discard); !ok {
				t.Errorf("buildNotifier() = %T, want notify.Discard", n)
			}
		})
	}
}

func TestRunExplicitMessagingConfigMissing(t *testing.T) {
	dir := setup(t)
	var stderr bytes.Buffer
	got := run([]string{"--wf", "workflow.hello.world", "--notify-config", filepath.Join(dir, "absent.json")}, io.Discard, &stderr)
	if got != 1 {
		t.Fatalf("run() = %d, want 1", got)
	}
	if !strings.Contains(stderr.String(), "absent.json") {
		t.Errorf("stderr = %q, want missing path named", stderr.String())
	}
}
