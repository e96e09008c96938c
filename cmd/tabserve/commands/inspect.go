package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/opst/tabserve/pkg/artifact"
	"github.com/opst/tabserve/pkg/schema"
)

var inspectFile bool

var inspectCmd = &cobra.Command{
	Use:   "inspect NAME",
	Short: "Show training header and model of an artifact",
	Long: `Show training header and model of an artifact.

NAME is looked up in the artifact store (models.dir or models.postgres_uri).
With --file, NAME is a path of an artifact file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var r io.ReadCloser
		if inspectFile {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			r = f
		} else {
			store, closeStore, err := artifactStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore()
			rc, err := store.Open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			r = rc
		}
		defer r.Close()

		model, header, err := artifact.Load(r)
		if err != nil {
			return err
		}
		return printArtifact(cmd.OutOrStdout(), model, header)
	},
}

func init() {
	inspectCmd.Flags().BoolVarP(&inspectFile, "file", "f", false, "NAME is a file path")
	rootCmd.AddCommand(inspectCmd)
}

func printArtifact(w io.Writer, model artifact.Model, header *schema.Schema) error {
	title := color.New(color.FgCyan, color.Bold)
	title.Fprintf(w, "relation: %s\n", header.Relation())

	table := tablewriter.NewWriter(w)
	table.Header("#", "attribute", "type", "values", "class")
	for i, a := range header.Attributes() {
		class := ""
		if i == header.ClassIndex() {
			class = "*"
		}
		if err := table.Append([]string{
			fmt.Sprint(i), a.Name, a.Type.String(), strings.Join(a.Values, ","), class,
		}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	title.Fprintf(w, "\nmodel: %s\n", model.Kind())
	fmt.Fprintln(w, model.Describe())
	return nil
}
