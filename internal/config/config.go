// Package config loads DaemonConfig the way the teacher loads its CLI
// config: a viper.Viper instance bound to prefixed environment variables,
// layered over typed defaults and an optional repo-local TOML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// Defaults mirror daemon_v2/config.py's DEFAULT_* constants.
const (
	DefaultPollInterval           = 30
	DefaultIterationTimeout       = 300
	DefaultMaxShepherds           = 10
	DefaultIssueThreshold         = 3
	DefaultMaxProposals           = 5
	DefaultArchitectCooldown      = 1800
	DefaultHermitCooldown         = 1800
	DefaultGuideInterval          = 900
	DefaultChampionInterval       = 600
	DefaultDoctorInterval         = 300
	DefaultAuditorInterval        = 600
	DefaultJudgeInterval          = 300
	DefaultCuratorInterval        = 300
	DefaultStartupGracePeriod     = 120
	DefaultNoProgressGracePeriod  = 300
	DefaultStallDiagnosticThresh  = 3
	DefaultStallRecoveryThresh    = 5
	DefaultStallRestartThresh     = 10
)

// DaemonConfig is the fully resolved daemon configuration for one run.
type DaemonConfig struct {
	PollInterval         int
	IterationTimeout     int
	ForceMode            bool
	AutoBuild            bool
	DebugMode            bool
	TimeoutMin           int
	MaxShepherds         int
	IssueThreshold       int
	IssueStrategy        string
	MaxProposals         int
	ArchitectCooldown    int
	HermitCooldown       int
	GuideInterval        int
	ChampionInterval     int
	DoctorInterval       int
	AuditorInterval      int
	JudgeInterval        int
	CuratorInterval      int
	StartupGracePeriod   int
	NoProgressGracePeriod int
	StallDiagnosticThreshold int
	StallRecoveryThreshold   int
	StallRestartThreshold    int
}

// Overrides carries flag-level values that take precedence over env/TOML,
// mirroring the --force/--auto-build/--debug/--timeout-min CLI flags.
type Overrides struct {
	ForceMode  bool
	AutoBuild  bool
	DebugMode  bool
	TimeoutMin int
}

// Load resolves a DaemonConfig for repoRoot. Precedence, highest first:
// process environment (LOOM_*), repoRoot/.loom/config.toml, built-in
// defaults. overrides (CLI flags) take precedence over all of the above.
func Load(repoRoot string, overrides Overrides) (*DaemonConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("LOOM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	tomlPath := filepath.Join(repoRoot, ".loom", "config.toml")
	if _, err := os.Stat(tomlPath); err == nil {
		var fileValues map[string]interface{}
		if _, err := toml.DecodeFile(tomlPath, &fileValues); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", tomlPath, err)
		}
		for key, val := range fileValues {
			v.SetDefault(key, val)
		}
	}

	envForce := EnvBool("LOOM_FORCE_MODE", v.GetBool("force_mode"))
	resolvedForce := overrides.ForceMode || envForce
	envAutoBuild := EnvBool("LOOM_AUTO_BUILD", v.GetBool("auto_build"))
	resolvedAutoBuild := overrides.AutoBuild || resolvedForce || envAutoBuild
	resolvedTimeoutMin := overrides.TimeoutMin
	if resolvedTimeoutMin == 0 {
		resolvedTimeoutMin = v.GetInt("timeout_min")
	}

	return &DaemonConfig{
		PollInterval:             v.GetInt("poll_interval"),
		IterationTimeout:         v.GetInt("iteration_timeout"),
		ForceMode:                resolvedForce,
		AutoBuild:                resolvedAutoBuild,
		DebugMode:                overrides.DebugMode || EnvBool("LOOM_DEBUG_MODE", v.GetBool("debug_mode")),
		TimeoutMin:               resolvedTimeoutMin,
		MaxShepherds:             v.GetInt("max_shepherds"),
		IssueThreshold:           v.GetInt("issue_threshold"),
		IssueStrategy:            v.GetString("issue_strategy"),
		MaxProposals:             v.GetInt("max_proposals"),
		ArchitectCooldown:        v.GetInt("architect_cooldown"),
		HermitCooldown:           v.GetInt("hermit_cooldown"),
		GuideInterval:            v.GetInt("guide_interval"),
		ChampionInterval:         v.GetInt("champion_interval"),
		DoctorInterval:           v.GetInt("doctor_interval"),
		AuditorInterval:          v.GetInt("auditor_interval"),
		JudgeInterval:            v.GetInt("judge_interval"),
		CuratorInterval:          v.GetInt("curator_interval"),
		StartupGracePeriod:       v.GetInt("startup_grace_period"),
		NoProgressGracePeriod:    v.GetInt("no_progress_grace_period"),
		StallDiagnosticThreshold: v.GetInt("stall_diagnostic_threshold"),
		StallRecoveryThreshold:   v.GetInt("stall_recovery_threshold"),
		StallRestartThreshold:    v.GetInt("stall_restart_threshold"),
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("poll_interval", DefaultPollInterval)
	v.SetDefault("iteration_timeout", DefaultIterationTimeout)
	v.SetDefault("force_mode", false)
	v.SetDefault("auto_build", false)
	v.SetDefault("debug_mode", false)
	v.SetDefault("timeout_min", 0)
	v.SetDefault("max_shepherds", DefaultMaxShepherds)
	v.SetDefault("issue_threshold", DefaultIssueThreshold)
	v.SetDefault("issue_strategy", "fifo")
	v.SetDefault("max_proposals", DefaultMaxProposals)
	v.SetDefault("architect_cooldown", DefaultArchitectCooldown)
	v.SetDefault("hermit_cooldown", DefaultHermitCooldown)
	v.SetDefault("guide_interval", DefaultGuideInterval)
	v.SetDefault("champion_interval", DefaultChampionInterval)
	v.SetDefault("doctor_interval", DefaultDoctorInterval)
	v.SetDefault("auditor_interval", DefaultAuditorInterval)
	v.SetDefault("judge_interval", DefaultJudgeInterval)
	v.SetDefault("curator_interval", DefaultCuratorInterval)
	v.SetDefault("startup_grace_period", DefaultStartupGracePeriod)
	v.SetDefault("no_progress_grace_period", DefaultNoProgressGracePeriod)
	v.SetDefault("stall_diagnostic_threshold", DefaultStallDiagnosticThresh)
	v.SetDefault("stall_recovery_threshold", DefaultStallRecoveryThresh)
	v.SetDefault("stall_restart_threshold", DefaultStallRestartThresh)
}

// ModeDisplay mirrors DaemonConfig.mode_display() from the original: a
// short human-facing label for the currently active mode.
func (c *DaemonConfig) ModeDisplay() string {
	var parts []string
	switch {
	case c.ForceMode:
		parts = append(parts, "Force")
	case c.AutoBuild:
		parts = append(parts, "Auto-build")
	}
	if c.DebugMode {
		parts = append(parts, "Debug")
	}
	if len(parts) == 0 {
		return "Support-only"
	}
	return strings.Join(parts, " + ")
}
