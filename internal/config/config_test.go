package config

import (
	"os"
	"testing"
)

func TestEnvBoolTruthyFalsyTokens(t *testing.T) {
	cases := []struct {
		val  string
		want bool
	}{
		{"true", true}, {"1", true}, {"yes", true}, {"ON", true},
		{"false", false}, {"0", false}, {"no", false}, {"Off", false},
		{"garbage", false}, // falls through to default
	}
	for _, c := range cases {
		t.Setenv("LOOM_TEST_BOOL", c.val)
		if got := EnvBool("LOOM_TEST_BOOL", false); got != c.want {
			t.Errorf("EnvBool(%q) = %v, want %v", c.val, got, c.want)
		}
	}
}

func TestEnvBoolUnsetReturnsDefault(t *testing.T) {
	os.Unsetenv("LOOM_TEST_UNSET_BOOL")
	if got := EnvBool("LOOM_TEST_UNSET_BOOL", true); got != true {
		t.Errorf("EnvBool(unset) = %v, want true", got)
	}
}

func TestLoadDefaultsWithNoEnvOrFile(t *testing.T) {
	cfg, err := Load(t.TempDir(), Overrides{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PollInterval != DefaultPollInterval {
		t.Errorf("PollInterval = %d, want %d", cfg.PollInterval, DefaultPollInterval)
	}
	if cfg.AutoBuild {
		t.Error("AutoBuild should default false")
	}
}

func TestLoadForceModeImpliesAutoBuild(t *testing.T) {
	cfg, err := Load(t.TempDir(), Overrides{ForceMode: true})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.ForceMode || !cfg.AutoBuild {
		t.Errorf("force mode should imply auto_build, got %+v", cfg)
	}
}

func TestModeDisplay(t *testing.T) {
	cases := []struct {
		cfg  DaemonConfig
		want string
	}{
		{DaemonConfig{}, "Support-only"},
		{DaemonConfig{ForceMode: true}, "Force"},
		{DaemonConfig{AutoBuild: true}, "Auto-build"},
		{DaemonConfig{ForceMode: true, DebugMode: true}, "Force + Debug"},
	}
	for _, c := range cases {
		if got := c.cfg.ModeDisplay(); got != c.want {
			t.Errorf("ModeDisplay() = %q, want %q", got, c.want)
		}
	}
}
