package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/docql/internal/docstore"
	"github.com/roach88/docql/internal/value"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Keyspace string // keyspace (overrides config bucket)
	Type     string // type discriminator value stamped on documents lacking one
}

// ImportResult is the import command's payload.
type ImportResult struct {
	Keyspace string   `json:"keyspace"`
	IDs      []string `json:"ids"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <documents-file>",
		Short: "Load documents into the local store",
		Long: `Insert JSON or YAML documents into the local SQLite document store.
The file holds one object or a list of objects; "-" reads stdin. A string
"id" member becomes the document id, otherwise a UUIDv7 is generated.
All documents are inserted in one transaction.

Examples:
  docql import books.json --type Book
  docql import - --keyspace library < authors.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Keyspace, "keyspace", "k", "", "keyspace to load into (default from config)")
	cmd.Flags().StringVarP(&opts.Type, "type", "t", "", "type value for documents without one")

	return cmd
}

func runImport(opts *ImportOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.loadConfig(formatter)
	if err != nil {
		return err
	}
	keyspace := cfg.Bucket
	if opts.Keyspace != "" {
		keyspace = opts.Keyspace
	}

	data, err := readInput(path, cmd.InOrStdin())
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeReadFailed, "reading documents", err)
	}
	v, err := value.DecodeYAML(data)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeReadFailed, "decoding documents", err)
	}
	bodies, err := documentBodies(v)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeReadFailed, "decoding documents", err)
	}
	if opts.Type != "" {
		for i, body := range bodies {
			if !body.Has(cfg.TypeKey) {
				bodies[i] = append(value.Object{value.M(cfg.TypeKey, value.String(opts.Type))}, body...)
			}
		}
	}

	st, err := docstore.Open(cfg.Store)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeBackend, "opening document store", err)
	}
	defer st.Close()

	ids, err := st.InsertMany(cmd.Context(), keyspace, bodies)
	if err != nil {
		return formatter.fail(ExitFailure, ErrCodeBackend, "inserting documents", err)
	}

	if formatter.JSON() {
		return formatter.Success(ImportResult{Keyspace: keyspace, IDs: ids})
	}
	formatter.Pass("Imported %d document(s) into %s", len(ids), keyspace)
	for _, id := range ids {
		formatter.VerboseLog("  %s", id)
	}
	return nil
}

// documentBodies accepts one object or a list of objects.
func documentBodies(v value.Value) ([]value.Object, error) {
	switch doc := v.(type) {
	case value.Object:
		return []value.Object{doc}, nil
	case value.Array:
		bodies := make([]value.Object, len(doc))
		for i, elem := range doc {
			obj, ok := elem.(value.Object)
			if !ok {
				return nil, fmt.Errorf("document %d: must be an object, got %s", i, value.Kind(elem))
			}
			bodies[i] = obj
		}
		return bodies, nil
	default:
		return nil, fmt.Errorf("documents must be an object or a list of objects, got %s", value.Kind(v))
	}
}
