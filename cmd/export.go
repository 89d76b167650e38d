package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/community-cli/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export-shp <collection>",
	Short: "Export entity centroids as a point shapefile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		coll, err := parseCollection(args[0])
		if err != nil {
			return err
		}
		if err := cfg.Validate("export"); err != nil {
			return err
		}
		ctx := cmd.Context()

		out, _ := cmd.Flags().GetString("out")
		oceanOnly, _ := cmd.Flags().GetBool("ocean-only")
		if out == "" {
			out = string(coll) + ".shp"
		}

		st, err := openMigrated(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := export.Centroids(ctx, st, coll, filterFlags(cmd), oceanOnly, out)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %d points to %s\n", n, out)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("out", "", "output path (default <collection>.shp)")
	exportCmd.Flags().Bool("ocean-only", false, "only export entities flagged as ocean, for review")
	addFilterFlags(exportCmd)
	rootCmd.AddCommand(exportCmd)
}
