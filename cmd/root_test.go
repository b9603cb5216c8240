package cmd

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/iksnae/session-report/internal"
	"github.com/iksnae/session-report/testutil"
)

// resetCommandState restores every flag variable to its default so tests
// sharing rootCmd do not leak state into each other
func resetCommandState() {
	verbose = false
	configPath = ""
	dataPath = ""
	backendName = ""
	appConfig = internal.DefaultConfig()

	listFormat = "table"
	listNoHeader = false
	limit = 0
	format = "jsonl"
	outputDir = "./exports"
	healthcheckVerbose = false
	healthcheckURL = ""
	submitServer = "http://localhost:3000"
	submitSessionID = ""
	submitTimeout = 30 * time.Second
	serveAddr = ""

	var reset func(c *cobra.Command)
	reset = func(c *cobra.Command) {
		for _, name := range []string{"help", "version"} {
			if f := c.Flags().Lookup(name); f != nil {
				_ = f.Value.Set("false")
			}
		}
		for _, sub := range c.Commands() {
			reset(sub)
		}
	}
	reset(rootCmd)
}

// executeCommand runs the root command with args and returns its output
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetCommandState()
	t.Cleanup(resetCommandState)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return buf.String(), err
}

// seededDataFile returns a JSON report file holding the default fixtures
func seededDataFile(t *testing.T) (string, []string) {
	t.Helper()
	path := filepath.Join(testutil.CreateTempDir(t), "reports.json")
	ids := testutil.SeedJSONStore(t, path, testutil.DefaultSeed())
	return path, ids
}

func TestRootCommand_Version(t *testing.T) {
	out, err := executeCommand(t, "--version")
	if err != nil {
		t.Fatalf("--version failed: %v", err)
	}
	if !strings.Contains(out, "dev (commit: unknown") {
		t.Errorf("unexpected version output: %q", out)
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	want := []string{"list", "show", "export", "delete", "submit", "serve", "config", "healthcheck"}
	for _, name := range want {
		found := false
		for _, c := range rootCmd.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("%s command not registered", name)
		}
	}
}

func TestRootCommand_PersistentFlags(t *testing.T) {
	for _, name := range []string{"verbose", "config", "data", "backend"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("root command should have --%s flag", name)
		}
	}
	if rootCmd.PersistentFlags().ShorthandLookup("v") == nil {
		t.Error("root command should have -v flag")
	}
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(t *testing.T)
		wantBackend string
		wantPath    string
		wantErr     bool
	}{
		{
			name:        "defaults",
			setup:       func(t *testing.T) {},
			wantBackend: internal.BackendJSON,
			wantPath:    internal.DefaultDataFile,
		},
		{
			name:        "sqlite backend uses its default file",
			setup:       func(t *testing.T) { backendName = internal.BackendSQLite },
			wantBackend: internal.BackendSQLite,
			wantPath:    internal.DefaultSQLiteFile,
		},
		{
			name: "data flag wins over backend default",
			setup: func(t *testing.T) {
				backendName = internal.BackendSQLite
				dataPath = "custom.db"
			},
			wantBackend: internal.BackendSQLite,
			wantPath:    "custom.db",
		},
		{
			name: "flag wins over environment",
			setup: func(t *testing.T) {
				t.Setenv("SESSION_REPORT_STORAGE_PATH", "from-env.json")
				dataPath = "from-flag.json"
			},
			wantBackend: internal.BackendJSON,
			wantPath:    "from-flag.json",
		},
		{
			name: "environment applies without flag",
			setup: func(t *testing.T) {
				t.Setenv("SESSION_REPORT_STORAGE_PATH", "from-env.json")
			},
			wantBackend: internal.BackendJSON,
			wantPath:    "from-env.json",
		},
		{
			name: "environment backend uses its default file",
			setup: func(t *testing.T) {
				t.Setenv("SESSION_REPORT_STORAGE_BACKEND", "sqlite")
			},
			wantBackend: internal.BackendSQLite,
			wantPath:    internal.DefaultSQLiteFile,
		},
		{
			name:    "unknown backend",
			setup:   func(t *testing.T) { backendName = "postgres" },
			wantErr: true,
		},
		{
			name:    "missing explicit config file",
			setup:   func(t *testing.T) { configPath = filepath.Join(t.TempDir(), "missing.yaml") },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetCommandState()
			t.Cleanup(resetCommandState)
			tt.setup(t)

			cfg, err := loadConfig()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("loadConfig() error = %v", err)
			}
			if cfg.Storage.Backend != tt.wantBackend {
				t.Errorf("backend = %q, want %q", cfg.Storage.Backend, tt.wantBackend)
			}
			if cfg.Storage.Path != tt.wantPath {
				t.Errorf("path = %q, want %q", cfg.Storage.Path, tt.wantPath)
			}
		})
	}
}

func TestRootCommand_InvalidBackend(t *testing.T) {
	_, err := executeCommand(t, "--backend", "postgres", "list")
	var verr *internal.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != "storage.backend" {
		t.Errorf("field = %q, want storage.backend", verr.Field)
	}
}

func TestConfigCommands(t *testing.T) {
	out, err := executeCommand(t, "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if !strings.HasPrefix(out, "# source: default\n") {
		t.Errorf("config show should start with the source line, got %q", out)
	}
	if !strings.Contains(out, "backend: json") {
		t.Errorf("config show should include the storage backend, got %q", out)
	}

	out, err = executeCommand(t, "config", "schema")
	if err != nil {
		t.Fatalf("config schema failed: %v", err)
	}
	if !strings.Contains(out, "session-report configuration") {
		t.Errorf("schema should carry its title, got %q", out)
	}
}

func TestDeleteCommand(t *testing.T) {
	path, ids := seededDataFile(t)

	out, err := executeCommand(t, "--data", path, "delete", ids[0])
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if !strings.Contains(out, "Deleted report "+ids[0]) {
		t.Errorf("unexpected output: %q", out)
	}

	_, err = executeCommand(t, "--data", path, "delete", ids[0])
	if !internal.IsNotFound(err) {
		t.Errorf("second delete should be not found, got %v", err)
	}
}
