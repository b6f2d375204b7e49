// Package cfg holds application-level configuration for the earshot server.
package cfg

import (
	"errors"
	"flag"
	"fmt"
)

// Config adds app-specific configuration fields to the common
// cfg.Registerable and cfg.Validatable interfaces.
type Config struct {
	DrainSeconds          int
	ShutdownBudgetSeconds int
	APIPort               int
	EmergencyThreshold    int
	AlertWebhookURL       string
	ClassifierAPIKey      string
	ClassifierEndpoint    string
	UseStubClassifier     bool
	TaskTTLHours          int
	AnthropicAPIKey       string
	AnthropicModel        string
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 60, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 90, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8080, "API listen TCP port (1..65535)")
	fs.IntVar(&c.EmergencyThreshold, "emergency-threshold", 7, "severity score at or above which events escalate to the notification channel (1..10)")
	fs.StringVar(&c.AlertWebhookURL, "alert-webhook-url", "", "webhook URL for emergency alert delivery (empty = no notifier)")
	fs.StringVar(&c.ClassifierAPIKey, "classifier-api-key", "", "API key for the audio classification provider")
	fs.StringVar(&c.ClassifierEndpoint, "classifier-endpoint", "", "classification API base URL (empty = provider default)")
	fs.BoolVar(&c.UseStubClassifier, "use-stub-classifier", false, "use the deterministic stub classifier instead of the cloud provider")
	fs.IntVar(&c.TaskTTLHours, "task-ttl-hours", 24, "hours a finished analysis task remains queryable (1..168)")
	fs.StringVar(&c.AnthropicAPIKey, "anthropic-api-key", "", "API key for LLM situation interpretation (empty = disabled)")
	fs.StringVar(&c.AnthropicModel, "anthropic-model", "claude-sonnet-4-20250514", "model for LLM situation interpretation")
}

// Validate checks all configuration fields for correctness.
// It returns an error if any field is invalid, or nil if all fields are valid.
func (c *Config) Validate() error {
	var errs []error

	// Drain and shutdown budgets
	if c.DrainSeconds <= 0 || c.DrainSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid DRAIN_SECONDS %d (must be 1..300)", c.DrainSeconds))
	}
	if c.ShutdownBudgetSeconds <= 0 || c.ShutdownBudgetSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid SHUTDOWN_BUDGET_SECONDS %d (must be 1..300)", c.ShutdownBudgetSeconds))
	}

	// Shutdown budget must be greater than drain time
	if c.ShutdownBudgetSeconds <= c.DrainSeconds {
		errs = append(errs, fmt.Errorf("SHUTDOWN_BUDGET_SECONDS %d must be greater than DRAIN_SECONDS %d", c.ShutdownBudgetSeconds, c.DrainSeconds))
	}

	// API port must be valid TCP port number
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.APIPort))
	}

	// Threshold must be a reachable severity score
	if c.EmergencyThreshold < 1 || c.EmergencyThreshold > 10 {
		errs = append(errs, fmt.Errorf("invalid EMERGENCY_THRESHOLD %d (must be 1..10)", c.EmergencyThreshold))
	}

	if c.TaskTTLHours <= 0 || c.TaskTTLHours > 168 {
		errs = append(errs, fmt.Errorf("invalid TASK_TTL_HOURS %d (must be 1..168)", c.TaskTTLHours))
	}

	// The real classifier needs a key; the stub does not
	if !c.UseStubClassifier && c.ClassifierAPIKey == "" {
		errs = append(errs, errors.New("CLASSIFIER_API_KEY is required unless USE_STUB_CLASSIFIER is set"))
	}

	if c.AnthropicAPIKey != "" && c.AnthropicModel == "" {
		errs = append(errs, errors.New("ANTHROPIC_MODEL is required when ANTHROPIC_API_KEY is set"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
