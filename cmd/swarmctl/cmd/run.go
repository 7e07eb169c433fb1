package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/openfleet/swarmctl/pkg/logger"
	"github.com/openfleet/swarmctl/pkg/scenario"
	"github.com/openfleet/swarmctl/pkg/utils"

	// Import scenarios so their init() registration runs
	_ "github.com/openfleet/swarmctl/cmd/formation-flight"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scenario",
	Long:  `Run a swarm scenario interactively or with specified parameters`,
	RunE:  runScenario,
}

func init() {
	runCmd.Flags().StringP("scenario", "s", "", "scenario name to run")
}

func runScenario(cmd *cobra.Command, _ []string) error {
	name, err := selectScenario(cmd)
	if err != nil {
		return fmt.Errorf("failed to select scenario: %w", err)
	}

	sc, err := scenario.DefaultRegistry.Get(name)
	if err != nil {
		return fmt.Errorf("failed to get scenario: %w", err)
	}

	infos, err := utils.DiscoverScenarios()
	if err != nil {
		return fmt.Errorf("failed to discover scenarios: %w", err)
	}

	var meta *scenario.Metadata
	for _, info := range infos {
		if info.Metadata.Name == name {
			meta = &info.Metadata
			break
		}
	}
	if meta == nil {
		return fmt.Errorf("scenario metadata not found for %s", name)
	}

	params, err := utils.PromptForParameters(meta.Parameters)
	if err != nil {
		return fmt.Errorf("failed to get parameters: %w", err)
	}

	if err := sc.Configure(params); err != nil {
		return fmt.Errorf("failed to configure scenario: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Warn("\nReceived interrupt signal, stopping scenario...")
		if err := sc.Stop(); err != nil {
			logger.Errorf("Failed to stop scenario: %v", err)
			return
		}
		cancel()
	}()

	logger.LogSection(fmt.Sprintf("Starting %s", sc.Name()))
	if err := sc.Run(ctx); err != nil {
		return fmt.Errorf("scenario failed: %w", err)
	}

	logger.Success("Scenario completed successfully")
	return nil
}

func selectScenario(cmd *cobra.Command) (string, error) {
	name, _ := cmd.Flags().GetString("scenario")
	if name != "" {
		return name, nil
	}

	infos, err := utils.DiscoverScenarios()
	if err != nil {
		return "", err
	}
	if len(infos) == 0 {
		return "", fmt.Errorf("no scenarios found")
	}

	options := make([]string, len(infos))
	descriptions := make(map[string]string)
	for i, info := range infos {
		options[i] = info.Metadata.Name
		descriptions[info.Metadata.Name] = info.Metadata.Description
	}

	var selected string
	prompt := &survey.Select{
		Message: "Select scenario:",
		Options: options,
		Description: func(value string, index int) string {
			return descriptions[value]
		},
	}

	if err := survey.AskOne(prompt, &selected); err != nil {
		return "", err
	}

	return selected, nil
}
