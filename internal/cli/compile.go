package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/docql/internal/inline"
	"github.com/roach88/docql/internal/query"
	"github.com/roach88/docql/internal/value"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Model    string // model whose documents are selected
	Models   string // model definitions directory (overrides config)
	Keyspace string // keyspace (overrides config bucket)
	Index    string // index hint
	Count    bool   // assemble a count statement
	Params   bool   // keep placeholders and print the parameter table
	Output   string // output file path
}

// CompileResult is the compile command's payload.
type CompileResult struct {
	Statement string       `json:"statement"`
	Params    value.Object `json:"params,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile [filter-file]",
		Short: "Compile a filter document to N1QL",
		Long: `Compile a JSON or YAML filter document ({where, fields, order, limit, skip})
into a N1QL statement. Reads stdin when the file is "-"; without a file
every document is selected.

By default every parameter is inlined as an escaped literal. With --params
the statement keeps its $placeholders and the parameter table is printed.

Examples:
  docql compile filter.json --model Book
  echo '{"where":{"title":{"xlike":"dune"}}}' | docql compile - --model Book --count
  docql compile filter.yaml --keyspace library --params --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			return runCompile(opts, path, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Model, "model", "m", "", "model to select (adds the type predicate)")
	cmd.Flags().StringVar(&opts.Models, "models", "", "model definitions directory (default from config)")
	cmd.Flags().StringVarP(&opts.Keyspace, "keyspace", "k", "", "keyspace to select from (default from config)")
	cmd.Flags().StringVar(&opts.Index, "index", "", "index hint")
	cmd.Flags().BoolVar(&opts.Count, "count", false, "assemble a count statement")
	cmd.Flags().BoolVar(&opts.Params, "params", false, "keep placeholders and print parameters")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the statement to a file")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.loadConfig(formatter)
	if err != nil {
		return err
	}
	qopts := query.Options{
		Keyspace: cfg.Bucket,
		TypeKey:  cfg.TypeKey,
		Index:    opts.Index,
	}
	if opts.Keyspace != "" {
		qopts.Keyspace = opts.Keyspace
	}

	if opts.Model != "" {
		dir := cfg.Models
		if opts.Models != "" {
			dir = opts.Models
		}
		models, err := loadModels(formatter, dir, cfg.TypeKey)
		if err != nil {
			return err
		}
		m, err := findModel(formatter, models, opts.Model)
		if err != nil {
			return err
		}
		mopts := m.QueryOptions(qopts.Keyspace)
		mopts.Index = qopts.Index
		qopts = mopts
	}

	filter, err := readFilter(formatter, path, cmd.InOrStdin())
	if err != nil {
		return err
	}

	var st *query.Statement
	if opts.Count {
		st, err = query.Count(qopts, filter.Where)
	} else {
		st, err = query.Select(qopts, filter)
	}
	if err != nil {
		return outputFilterError(formatter, err)
	}

	result := CompileResult{Statement: st.Text()}
	if opts.Params {
		result.Params = st.Params.Object()
	} else if result.Statement, err = st.Inline(); err != nil {
		return outputFilterError(formatter, err)
	}
	formatter.VerboseLog("Compiled %s statement with %d parameter(s)", st.Kind, st.Params.Len())

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(result.Statement+"\n"), 0644); err != nil {
			return formatter.fail(ExitCommandError, ErrCodeWriteFailed, "writing output file", err)
		}
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	fmt.Fprintln(formatter.Writer, result.Statement)
	for _, m := range result.Params {
		lit, err := inline.Literal(m.Value)
		if err != nil {
			return outputFilterError(formatter, err)
		}
		fmt.Fprintf(formatter.Writer, "  $%s = %s\n", m.Key, lit)
	}
	if opts.Output != "" {
		formatter.Note("Wrote statement to %s", opts.Output)
	}
	return nil
}
