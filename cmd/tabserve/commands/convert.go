package commands

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/opst/tabserve/pkg/tabular"
)

var (
	convertLimit   int
	convertOut     string
	convertOptions string
)

var convertCmd = &cobra.Command{
	Use:   "convert CSV",
	Short: "Convert a CSV file into a request body",
	Long: `Convert a CSV file into a request body of POST /invocations.

The first record of CSV is column names. Empty cells and "null" are missing.
The output can be served as GET /sample with sample_file config.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		opts, err := tabular.ParseOptions(convertOptions)
		if err != nil {
			return err
		}

		body, err := convertCSV(f, convertLimit, opts)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		if convertOut == "" || convertOut == "-" {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), string(body))
			return err
		}
		return os.WriteFile(convertOut, body, 0o644)
	},
}

func init() {
	convertCmd.Flags().IntVarP(&convertLimit, "limit", "n", 0, "max number of rows. 0 for all")
	convertCmd.Flags().StringVarP(&convertOut, "out", "o", "", "output file. stdout if empty")
	convertCmd.Flags().StringVar(&convertOptions, "options", "", `column types, like "nominal=a,b;string=c"`)
	rootCmd.AddCommand(convertCmd)
}

func convertCSV(r io.Reader, limit int, opts tabular.Options) ([]byte, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	names, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("cannot read header: %w", err)
	}

	records := [][]string{}
	for limit <= 0 || len(records) < limit {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	frame, err := tabular.FromRecords(names, records, opts)
	if err != nil {
		return nil, err
	}
	return tabular.Encode(frame)
}
