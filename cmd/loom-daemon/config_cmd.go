package main

import (
	"fmt"

	"github.com/rjwalters/loom-sub003/internal/config"
	"github.com/rjwalters/loom-sub003/internal/repo"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configShowYAML bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the resolved daemon configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved DaemonConfig",
	RunE:  runConfigShow,
}

func init() {
	configShowCmd.Flags().BoolVar(&configShowYAML, "yaml", false, "render as YAML instead of a plain field list")
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	var locator repo.Locator
	root, err := locator.Root("")
	if err != nil {
		return exitFailure
	}

	cfg, err := config.Load(root, config.Overrides{
		ForceMode:  flagForce,
		AutoBuild:  flagAutoBuild,
		DebugMode:  flagDebug,
		TimeoutMin: flagTimeoutMin,
	})
	if err != nil {
		return exitFailure
	}

	if configShowYAML {
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("config show: marshal yaml: %w", err)
		}
		fmt.Print(string(out))
		return nil
	}

	fmt.Printf("mode:                %s\n", cfg.ModeDisplay())
	fmt.Printf("poll_interval:       %d\n", cfg.PollInterval)
	fmt.Printf("iteration_timeout:   %d\n", cfg.IterationTimeout)
	fmt.Printf("force_mode:          %t\n", cfg.ForceMode)
	fmt.Printf("auto_build:          %t\n", cfg.AutoBuild)
	fmt.Printf("debug_mode:          %t\n", cfg.DebugMode)
	fmt.Printf("timeout_min:         %d\n", cfg.TimeoutMin)
	fmt.Printf("max_shepherds:       %d\n", cfg.MaxShepherds)
	fmt.Printf("issue_threshold:     %d\n", cfg.IssueThreshold)
	fmt.Printf("issue_strategy:      %s\n", cfg.IssueStrategy)
	fmt.Printf("max_proposals:       %d\n", cfg.MaxProposals)
	fmt.Printf("architect_cooldown:  %d\n", cfg.ArchitectCooldown)
	fmt.Printf("hermit_cooldown:     %d\n", cfg.HermitCooldown)
	fmt.Printf("guide_interval:      %d\n", cfg.GuideInterval)
	fmt.Printf("champion_interval:   %d\n", cfg.ChampionInterval)
	fmt.Printf("doctor_interval:     %d\n", cfg.DoctorInterval)
	fmt.Printf("auditor_interval:    %d\n", cfg.AuditorInterval)
	fmt.Printf("judge_interval:      %d\n", cfg.JudgeInterval)
	fmt.Printf("curator_interval:    %d\n", cfg.CuratorInterval)
	return nil
}
