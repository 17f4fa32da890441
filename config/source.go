package config

// Source indicates where a configuration value came from.
type Source string

const (
	// SourceDefault indicates the value is a built-in default.
	SourceDefault Source = "default"

	// SourceGlobal indicates the value came from ~/.config/commitflow/config.yaml.
	SourceGlobal Source = "global"

	// SourceLocal indicates the value came from .commitflow.yaml in the git root.
	SourceLocal Source = "local"

	// SourceEnv indicates the value came from a COMMITFLOW_* environment variable.
	SourceEnv Source = "env"

	// SourceFlag indicates the value was set via command-line flag.
	SourceFlag Source = "flag"
)
