package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/couchbase/gocb/v2"
	"github.com/spf13/cobra"

	"github.com/roach88/docql/internal/couchbase"
	"github.com/roach88/docql/internal/model"
)

// IndexOptions holds flags for the index command.
type IndexOptions struct {
	*RootOptions
	Models   string // model definitions directory (overrides config)
	Keyspace string // keyspace (overrides config bucket)
	Apply    bool   // run the plan against the cluster

	// connect opens the DDL executor for --apply.
	connect func(couchbase.Options) (ddlExecutor, error)
}

// ddlExecutor runs index statements.
type ddlExecutor interface {
	Exec(ctx context.Context, statement string) error
	Close() error
}

// ModelPlan is the index plan of one model.
type ModelPlan struct {
	Model      string       `json:"model"`
	Statements []PlannedDDL `json:"statements"`
}

// PlannedDDL is one index statement and, with --apply, its outcome.
type PlannedDDL struct {
	Kind      string `json:"kind"`
	Index     string `json:"index,omitempty"`
	Statement string `json:"statement"`
	Applied   bool   `json:"applied,omitempty"`
	Skipped   bool   `json:"skipped,omitempty"` // already in the wanted state
	Error     string `json:"error,omitempty"`
}

// NewIndexCommand creates the index command.
func NewIndexCommand(rootOpts *RootOptions) *cobra.Command {
	return newIndexCommand(rootOpts, connectCluster)
}

func newIndexCommand(rootOpts *RootOptions, connect func(couchbase.Options) (ddlExecutor, error)) *cobra.Command {
	opts := &IndexOptions{RootOptions: rootOpts, connect: connect}

	cmd := &cobra.Command{
		Use:   "index [model...]",
		Short: "Plan or apply model index DDL",
		Long: `Render the index statements of CUE-declared models: drops (when the
model sets drop), the primary index, one CREATE INDEX per declared index
restricted to the model's documents, and BUILD INDEX for deferred builds.

Without model names every model is planned. With --apply the statements
run against the configured cluster in order; dropping a missing index and
creating an existing one are skipped.

Examples:
  docql index
  docql index Book --keyspace library --format json
  docql index --apply --config docql.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Models, "models", "", "model definitions directory (default from config)")
	cmd.Flags().StringVarP(&opts.Keyspace, "keyspace", "k", "", "keyspace to index (default from config)")
	cmd.Flags().BoolVar(&opts.Apply, "apply", false, "run the statements against the cluster")

	return cmd
}

func connectCluster(opts couchbase.Options) (ddlExecutor, error) {
	client, err := couchbase.Connect(opts)
	if err != nil {
		return nil, err
	}
	return &clusterDDL{Backend: couchbase.NewBackend(client), client: client}, nil
}

type clusterDDL struct {
	*couchbase.Backend
	client *couchbase.Client
}

func (c *clusterDDL) Close() error { return c.client.Close() }

func runIndex(opts *IndexOptions, names []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.loadConfig(formatter)
	if err != nil {
		return err
	}
	dir := cfg.Models
	if opts.Models != "" {
		dir = opts.Models
	}
	keyspace := cfg.Bucket
	if opts.Keyspace != "" {
		keyspace = opts.Keyspace
	}

	models, err := loadModels(formatter, dir, cfg.TypeKey)
	if err != nil {
		return err
	}
	if len(names) > 0 {
		selected := make([]*model.Model, 0, len(names))
		for _, name := range names {
			m, err := findModel(formatter, models, name)
			if err != nil {
				return err
			}
			selected = append(selected, m)
		}
		models = selected
	}

	plans := make([]ModelPlan, 0, len(models))
	for _, m := range models {
		ddl, err := m.Plan(keyspace)
		if err != nil {
			return outputModelErrors(formatter, err)
		}
		plan := ModelPlan{Model: m.Name, Statements: make([]PlannedDDL, 0, len(ddl))}
		for _, d := range ddl {
			text, err := d.Inline()
			if err != nil {
				return formatter.fail(ExitFailure, ErrCodeGeneric, "inlining index statement", err)
			}
			plan.Statements = append(plan.Statements, PlannedDDL{Kind: d.Kind.String(), Index: d.Index, Statement: text})
		}
		plans = append(plans, plan)
	}

	if opts.Apply {
		if !cfg.UseCluster() {
			return formatter.fail(ExitCommandError, ErrCodeConfig, "--apply requires a cluster connection string", nil)
		}
		exec, err := opts.connect(cfg.CouchbaseOptions())
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeBackend, "connecting to cluster", err)
		}
		defer exec.Close()
		if err := applyPlans(cmd.Context(), exec, plans); err != nil {
			if !formatter.JSON() {
				outputPlansText(formatter, plans, true)
			}
			return formatter.fail(ExitFailure, ErrCodeBackend, "applying index plan", err)
		}
	}

	if formatter.JSON() {
		return formatter.Success(plans)
	}
	outputPlansText(formatter, plans, opts.Apply)
	return nil
}

// applyPlans runs every statement in order, stopping at the first failure.
func applyPlans(ctx context.Context, exec ddlExecutor, plans []ModelPlan) error {
	if ctx == nil {
		ctx = context.Background()
	}
	for i := range plans {
		for j := range plans[i].Statements {
			s := &plans[i].Statements[j]
			err := exec.Exec(ctx, s.Statement)
			switch {
			case err == nil:
				s.Applied = true
			case alreadyApplied(s.Kind, err):
				s.Skipped = true
			default:
				s.Error = err.Error()
				return fmt.Errorf("%s %s: %w", s.Kind, s.Index, err)
			}
		}
	}
	return nil
}

func alreadyApplied(kind string, err error) bool {
	switch kind {
	case model.DDLDrop.String():
		return errors.Is(err, gocb.ErrIndexNotFound)
	case model.DDLCreate.String(), model.DDLCreatePrimary.String():
		return errors.Is(err, gocb.ErrIndexExists)
	}
	return false
}

func outputPlansText(f *OutputFormatter, plans []ModelPlan, applied bool) {
	for _, plan := range plans {
		f.Note("-- %s", plan.Model)
		for _, s := range plan.Statements {
			switch {
			case !applied:
				fmt.Fprintf(f.Writer, "%s;\n", s.Statement)
			case s.Applied:
				f.Pass("%s", s.Statement)
			case s.Skipped:
				f.Note("- %s (skipped)", s.Statement)
			case s.Error != "":
				f.Fail("%s", s.Statement)
				fmt.Fprintf(f.Writer, "  %s\n", s.Error)
			default:
				fmt.Fprintf(f.Writer, "  %s;\n", s.Statement)
			}
		}
	}
}
