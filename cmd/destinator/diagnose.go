package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/destinator/internal/api"
	"github.com/jackzampolin/destinator/internal/pdfdoc"
	"github.com/jackzampolin/destinator/internal/reconcile"
	"github.com/jackzampolin/destinator/internal/report"
)

var (
	diagnoseTitles []string
	diagnoseFile   string
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose <pdf>",
	Short: "Show the destinations and links a PDF contains",
	Long: `Read a PDF without changing it and list its pages, name tree and
catalog destinations, link annotations and anything that could not be
resolved.

With --titles or --file the desired list is merged as "edit" would, and the
merge diagnostics are included.

Examples:
  destinator diagnose book.pdf
  destinator diagnose book.pdf -o json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svcs, err := setup(cmd, os.Stderr)
		if err != nil {
			return err
		}

		doc, err := pdfdoc.Open(args[0], svcs.Logger)
		if err != nil {
			return err
		}
		defer doc.Close()

		d := doc.Diagnose()
		if len(diagnoseTitles) > 0 || diagnoseFile != "" {
			want, err := loadDesired(diagnoseTitles, diagnoseFile, args[0], svcs.Logger)
			if err != nil {
				return err
			}
			_, diags := reconcile.Load(doc.Discover(), want, svcs.Config.Get().Policy())
			d.Diagnostics = diags
		}
		return api.Output(report.Diagnosis{Diagnosis: *d})
	},
}

func init() {
	diagnoseCmd.Flags().StringSliceVar(&diagnoseTitles, "titles", nil, "destination titles to merge (comma separated)")
	diagnoseCmd.Flags().StringVar(&diagnoseFile, "file", "", "JSON or YAML file listing destinations")
}
