package startup

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version == "" {
		t.Error("Expected Version to be set")
	}
	if info.GoVersion == "" {
		t.Error("Expected GoVersion to be set")
	}
	if info.OS == "" {
		t.Error("Expected OS to be set")
	}
	if info.Arch == "" {
		t.Error("Expected Arch to be set")
	}

	if info.GoVersion != GoVersion {
		t.Errorf("Expected GoVersion=%s, got %s", GoVersion, info.GoVersion)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	base := t.TempDir()
	t.Setenv("CACHE_DIR", filepath.Join(base, "cache"))
	t.Setenv("DATA_DIR", filepath.Join(base, "data"))

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if config.Port != "8080" {
		t.Errorf("Port = %q, want 8080", config.Port)
	}
	if config.MetricsPort != "9090" {
		t.Errorf("MetricsPort = %q, want 9090", config.MetricsPort)
	}
	if !config.MetricsEnabled {
		t.Error("expected metrics enabled by default")
	}
	if config.StatsInterval != 30*time.Second {
		t.Errorf("StatsInterval = %v, want 30s", config.StatsInterval)
	}
	if config.Limits.VideoMaxBytes != 500*1024*1024 {
		t.Errorf("VideoMaxBytes = %d, want default", config.Limits.VideoMaxBytes)
	}

	if config.CatalogPath != filepath.Join(config.DataDir, "catalog.db") {
		t.Errorf("unexpected CatalogPath: %s", config.CatalogPath)
	}
	if config.SessionDir != filepath.Join(config.DataDir, "session") {
		t.Errorf("unexpected SessionDir: %s", config.SessionDir)
	}

	// The required directories must exist after a successful load.
	for _, dir := range []string{config.CoversDir, config.ThumbnailDir, config.PagesDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("expected directory %s to exist", dir)
		}
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	base := t.TempDir()
	t.Setenv("CACHE_DIR", filepath.Join(base, "cache"))
	t.Setenv("DATA_DIR", filepath.Join(base, "data"))
	t.Setenv("PORT", "3000")
	t.Setenv("CATALOGUE_ENDPOINT", "https://catalogue.example/api/assets")
	t.Setenv("CONSOLE_TOKEN", "hunter2")
	t.Setenv("VIDEO_MAX_BYTES", "1048576")
	t.Setenv("STATS_INTERVAL", "5s")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if config.Port != "3000" {
		t.Errorf("Port = %q, want 3000", config.Port)
	}
	if config.CatalogueEndpoint != "https://catalogue.example/api/assets" {
		t.Errorf("unexpected endpoint: %s", config.CatalogueEndpoint)
	}
	if config.ConsoleToken != "hunter2" {
		t.Errorf("unexpected console token: %s", config.ConsoleToken)
	}
	if config.Limits.VideoMaxBytes != 1048576 {
		t.Errorf("VideoMaxBytes = %d, want 1048576", config.Limits.VideoMaxBytes)
	}
	if config.StatsInterval != 5*time.Second {
		t.Errorf("StatsInterval = %v, want 5s", config.StatsInterval)
	}
}

func TestLoadConfigDataDirNotWritable(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}

	base := t.TempDir()
	dataDir := filepath.Join(base, "data")
	if err := os.Mkdir(dataDir, 0o555); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	t.Setenv("CACHE_DIR", filepath.Join(base, "cache"))
	t.Setenv("DATA_DIR", dataDir)

	if _, err := LoadConfig(); err == nil {
		t.Error("expected error for read-only data directory")
	}
}

func TestEnsureDirectoryRejectsFile(t *testing.T) {
	base := t.TempDir()
	path := filepath.Join(base, "not-a-dir")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := ensureDirectory(path); err == nil {
		t.Error("expected error when path is a regular file")
	}
}

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
		setEnv       bool
	}{
		{
			name:         "Returns default when env var not set",
			key:          "TEST_UNSET_VAR",
			defaultValue: "default",
			want:         "default",
			setEnv:       false,
		},
		{
			name:         "Returns env value when set",
			key:          "TEST_SET_VAR",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
			setEnv:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setEnv {
				t.Setenv(tt.key, tt.envValue)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv(%q, %q) = %q, want %q", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		envValue     string
		defaultValue bool
		want         bool
		setEnv       bool
	}{
		{
			name:         "Returns default when env var not set",
			key:          "TEST_BOOL_UNSET",
			defaultValue: true,
			want:         true,
		},
		{
			name:         "Returns true when env var is 'true'",
			key:          "TEST_BOOL_TRUE",
			envValue:     "true",
			defaultValue: false,
			want:         true,
			setEnv:       true,
		},
		{
			name:         "Returns false when env var is '0'",
			key:          "TEST_BOOL_ZERO",
			envValue:     "0",
			defaultValue: true,
			want:         false,
			setEnv:       true,
		},
		{
			name:         "Returns default when env var is invalid",
			key:          "TEST_BOOL_INVALID",
			envValue:     "not-a-bool",
			defaultValue: true,
			want:         true,
			setEnv:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setEnv {
				t.Setenv(tt.key, tt.envValue)
			}

			got := getEnvBool(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvBool(%q, %v) = %v, want %v", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestGetEnvBytes(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		want     int64
		setEnv   bool
	}{
		{name: "Default when unset", want: 100},
		{name: "Parses a positive value", envValue: "2048", want: 2048, setEnv: true},
		{name: "Default on garbage", envValue: "ten megabytes", want: 100, setEnv: true},
		{name: "Default on zero", envValue: "0", want: 100, setEnv: true},
		{name: "Default on negative", envValue: "-5", want: 100, setEnv: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setEnv {
				t.Setenv("TEST_BYTES", tt.envValue)
			}

			got := getEnvBytes("TEST_BYTES", 100)
			if got != tt.want {
				t.Errorf("getEnvBytes(TEST_BYTES, 100) = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		want     time.Duration
		setEnv   bool
	}{
		{name: "Default when unset", want: time.Minute},
		{name: "Parses a duration", envValue: "90s", want: 90 * time.Second, setEnv: true},
		{name: "Default on garbage", envValue: "soon", want: time.Minute, setEnv: true},
		{name: "Default on negative", envValue: "-10s", want: time.Minute, setEnv: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setEnv {
				t.Setenv("TEST_DURATION", tt.envValue)
			}

			got := getEnvDuration("TEST_DURATION", time.Minute)
			if got != tt.want {
				t.Errorf("getEnvDuration(TEST_DURATION, 1m) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMaskToken(t *testing.T) {
	if got := maskToken(""); got != "(unset)" {
		t.Errorf("maskToken(\"\") = %q", got)
	}
	masked := maskToken("secret-token")
	if masked == "secret-token" {
		t.Error("maskToken must not echo the token")
	}
	if masked != "(set, 12 chars)" {
		t.Errorf("maskToken(\"secret-token\") = %q", masked)
	}
}
