package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func modelsCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:     "models",
		Short:   "Print the model catalog",
		Example: "  nightingale-ai models\n  nightingale-ai models --format json",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			cat, err := cfg.Catalog()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch format {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(cat.List())
			case "table":
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tCATEGORY\tDRIVER\tMEMORY\tRECOMMENDED\tNAME")
				for _, d := range cat.List() {
					drv := d.Driver
					if drv == "" {
						drv = cfg.DefaultDriver
					}
					rec := ""
					if d.Recommended {
						rec = "yes"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", d.ID, d.Category, drv, d.MemoryRequired, rec, d.BackendName)
				}
				return tw.Flush()
			default:
				return fmt.Errorf("unknown format %q (want %s)", format, strings.Join([]string{"table", "json"}, " or "))
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table|json")
	return cmd
}
