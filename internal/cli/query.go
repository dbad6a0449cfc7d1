package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/docql/internal/qerr"
	"github.com/roach88/docql/internal/repo"
	"github.com/roach88/docql/internal/value"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Models   string // model definitions directory (overrides config)
	Keyspace string // keyspace (overrides config bucket)
	Index    string // index hint
	Count    bool   // count instead of returning documents
}

// QueryResult is the query command's payload.
type QueryResult struct {
	Documents []value.Object `json:"documents,omitempty"`
	Total     *int64         `json:"total,omitempty"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <model> [filter-file]",
		Short: "Run a filter against the configured backend",
		Long: `Find or count a model's documents. Queries run against the Couchbase
cluster when a connection string is configured and against the local
document store otherwise. Hidden fields are stripped from results.

Text output prints one JSON document per line.

Examples:
  docql query Book filter.json
  docql query Book - --count < filter.yaml
  docql query Author --format json --verbose`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 2 {
				path = args[1]
			}
			return runQuery(opts, args[0], path, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Models, "models", "", "model definitions directory (default from config)")
	cmd.Flags().StringVarP(&opts.Keyspace, "keyspace", "k", "", "keyspace to query (default from config)")
	cmd.Flags().StringVar(&opts.Index, "index", "", "index hint")
	cmd.Flags().BoolVar(&opts.Count, "count", false, "count matching documents")

	return cmd
}

func runQuery(opts *QueryOptions, modelName, path string, cmd *cobra.Command) error {
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
	m, err := findModel(formatter, models, modelName)
	if err != nil {
		return err
	}
	filter, err := readFilter(formatter, path, cmd.InOrStdin())
	if err != nil {
		return err
	}

	b, err := openBackend(formatter, cfg)
	if err != nil {
		return err
	}
	defer b.close()

	r := repo.New(b, keyspace, m, repo.WithLogger(statementLogger(formatter)))
	ctx := cmd.Context()

	var result QueryResult
	if opts.Count {
		total, err := r.Count(ctx, filter.Where, opts.Index)
		if err != nil {
			return queryFailed(formatter, err)
		}
		result.Total = &total
	} else {
		docs, err := r.Find(ctx, filter, opts.Index)
		if err != nil {
			return queryFailed(formatter, err)
		}
		result.Documents = make([]value.Object, len(docs))
		for i, d := range docs {
			result.Documents[i] = d.Object()
		}
		formatter.VerboseLog("%d document(s)", len(docs))
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	if result.Total != nil {
		fmt.Fprintln(formatter.Writer, *result.Total)
		return nil
	}
	for _, doc := range result.Documents {
		line, err := value.Literal(doc)
		if err != nil {
			return formatter.fail(ExitFailure, ErrCodeGeneric, "rendering document", err)
		}
		fmt.Fprintln(formatter.Writer, line)
	}
	return nil
}

// queryFailed separates rejected filters from backend failures.
func queryFailed(f *OutputFormatter, err error) error {
	var qe *qerr.Error
	if errors.As(err, &qe) {
		return outputFilterError(f, err)
	}
	return f.fail(ExitFailure, ErrCodeBackend, "query failed", err)
}
