package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/weftlab/weft/pkg/graph"
	"github.com/weftlab/weft/pkg/ref"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	want := map[string]bool{"inspect": false, "verify": false, "cache": false}
	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("root command is missing subcommand %q", name)
		}
	}
}

func TestCacheDirDefault(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	c := &CLI{}

	dir, err := c.cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".cache", "weft")
	if dir != expected {
		t.Errorf("cacheDir() = %q, want %q", dir, expected)
	}
}

func TestCacheDirOverrides(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	c := &CLI{}
	if dir, _ := c.cacheDir(); dir != filepath.Join("/tmp/xdg", "weft") {
		t.Errorf("XDG cacheDir() = %q", dir)
	}

	c.Config.Cache.Dir = "/var/cache/custom"
	if dir, _ := c.cacheDir(); dir != "/var/cache/custom" {
		t.Errorf("configured cacheDir() = %q", dir)
	}
}

func TestStatsFor(t *testing.T) {
	loggerType := ref.Type("app", "Logger")
	serverType := ref.Type("app", "Server")

	logExport := &graph.Export{Contract: "logger", Declaring: loggerType}
	parts := []*graph.Part{
		{
			Type:            loggerType,
			Activator:       ref.Constructor(loggerType, "New"),
			Exports:         []*graph.Export{logExport},
			SharingBoundary: "app",
		},
		{
			Type:      serverType,
			Activator: ref.Constructor(serverType, "New"),
			ActivatorImports: []*graph.Import{{
				Parameter:   ref.Parameter(ref.Constructor(serverType, "New"), 0),
				Containing:  serverType,
				SiteType:    loggerType,
				ElementType: loggerType,
				Satisfying:  []*graph.Export{logExport},
			}},
			Exports: []*graph.Export{
				{Contract: "server", Declaring: serverType},
				{Contract: "logger", Declaring: serverType},
			},
		},
	}
	g, err := graph.New(parts, map[ref.TypeRef]*graph.Export{
		ref.Type("app", "View"): logExport,
	})
	if err != nil {
		t.Fatalf("graph.New: %v", err)
	}

	st := statsFor(g)
	if st.Parts != 2 || st.Instantiable != 2 || st.Shared != 1 {
		t.Errorf("parts = %d/%d/%d, want 2/2/1", st.Parts, st.Instantiable, st.Shared)
	}
	if st.Exports != 3 || st.Imports != 1 || st.ViewProviders != 1 {
		t.Errorf("exports/imports/providers = %d/%d/%d, want 3/1/1",
			st.Exports, st.Imports, st.ViewProviders)
	}
	if len(st.Contracts) != 2 {
		t.Fatalf("contracts = %d, want 2", len(st.Contracts))
	}
	// Sorted by name: "logger" (2 exports) before "server" (1).
	if st.Contracts[0].Name != "logger" || st.Contracts[0].Exports != 2 {
		t.Errorf("contract[0] = %+v", st.Contracts[0])
	}
	if st.Contracts[1].Name != "server" || st.Contracts[1].Exports != 1 {
		t.Errorf("contract[1] = %+v", st.Contracts[1])
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weft.toml")
	content := strings.Join([]string{
		`[cache]`,
		`backend = "redis"`,
		`ttl_hours = 24`,
		``,
		`[redis]`,
		`addr = "localhost:6379"`,
		`db = 2`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Cache.Backend != BackendRedis {
		t.Errorf("backend = %q, want redis", cfg.Cache.Backend)
	}
	if cfg.Cache.TTLHours != 24 {
		t.Errorf("ttl_hours = %d, want 24", cfg.Cache.TTLHours)
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.Redis.DB != 2 {
		t.Errorf("redis = %+v", cfg.Redis)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("LoadConfig of missing file should error")
	}
}
