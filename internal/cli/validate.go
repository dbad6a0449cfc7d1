package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ModelSummary describes one valid model.
type ModelSummary struct {
	Name     string   `json:"name"`
	TypeKey  string   `json:"type_key"`
	Indexes  []string `json:"indexes,omitempty"`
	Hidden   []string `json:"hidden,omitempty"`
	Primary  bool     `json:"primary"`
	Deferred bool     `json:"deferred"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool           `json:"valid"`
	Models []ModelSummary `json:"models"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [models-dir]",
		Short: "Validate CUE model definitions",
		Long: `Load and validate the CUE model definitions without touching any backend.

Reports CUE errors with their position and every model validation error
(duplicate index names, empty indexes, xlike keys on wildcard paths,
hidden ids). Defaults to the configured models directory.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			var dir string
			if len(args) == 1 {
				dir = args[0]
			}
			return runValidate(rootOpts, dir, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.loadConfig(formatter)
	if err != nil {
		return err
	}
	if dir == "" {
		dir = cfg.Models
	}

	models, err := loadModels(formatter, dir, cfg.TypeKey)
	if err != nil {
		return err
	}

	result := ValidationResult{Valid: true, Models: make([]ModelSummary, 0, len(models))}
	for _, m := range models {
		s := ModelSummary{
			Name:     m.Name,
			TypeKey:  m.TypeKey,
			Hidden:   m.Hidden,
			Primary:  m.Primary,
			Deferred: m.Deferred,
		}
		for _, idx := range m.Indexes {
			s.Indexes = append(s.Indexes, idx.Name)
		}
		result.Models = append(result.Models, s)
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}

	formatter.Pass("%d model(s) valid", len(result.Models))
	for _, s := range result.Models {
		fmt.Fprintf(formatter.Writer, "  %s: %d index(es)", s.Name, len(s.Indexes))
		if s.Primary {
			fmt.Fprint(formatter.Writer, ", primary")
		}
		if len(s.Hidden) > 0 {
			fmt.Fprintf(formatter.Writer, ", %d hidden field(s)", len(s.Hidden))
		}
		fmt.Fprintln(formatter.Writer)
	}
	return nil
}
