package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"inferd/internal/config"
	"inferd/internal/registry"
)

func modelsCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:     "models",
		Short:   "List *.gguf models found in the models directory",
		Example: "  inferd models --models-dir ~/models/llm",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadDir(cfg.ModelsDir)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tQUANT\tFAMILY\tSIZE(MB)")
			for _, m := range reg {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", m.ID, m.Quant, m.Family, m.SizeMB)
			}
			return tw.Flush()
		},
	}
}
