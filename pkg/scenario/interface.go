package scenario

import "context"

// Scenario defines the interface that all swarm scenarios must implement.
// Scenarios are self-contained: they build their own coordinator and
// collaborators from the configured parameters.
type Scenario interface {
	// Name returns the name of the scenario
	Name() string

	// Description returns a brief description of what the scenario does
	Description() string

	// Configure sets up the scenario with the provided parameters
	Configure(params map[string]interface{}) error

	// Run executes the scenario until completion or context cancellation
	Run(ctx context.Context) error

	// Stop gracefully shuts down the scenario
	Stop() error
}
