package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/community-cli/internal/model"
	"github.com/sells-group/community-cli/internal/store"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Read published communities",
}

var queryGetCmd = &cobra.Command{
	Use:   "get <collection> <slug>",
	Short: "Print one entity as JSON",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		coll, err := parseCollection(args[0])
		if err != nil {
			return err
		}
		if err := cfg.Validate("store"); err != nil {
			return err
		}
		ctx := cmd.Context()

		st, err := openMigrated(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		doc, err := st.Get(ctx, coll, args[1])
		if err != nil {
			return eris.Wrapf(err, "query: get %s/%s", coll, args[1])
		}
		return printJSON(doc)
	},
}

var queryListCmd = &cobra.Command{
	Use:   "list <collection>",
	Short: "List entities as a JSON array",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		coll, err := parseCollection(args[0])
		if err != nil {
			return err
		}
		if err := cfg.Validate("store"); err != nil {
			return err
		}
		ctx := cmd.Context()

		st, err := openMigrated(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		docs, err := st.List(ctx, coll, filterFlags(cmd))
		if err != nil {
			return eris.Wrapf(err, "query: list %s", coll)
		}
		return printJSON(docs)
	},
}

var queryCountCmd = &cobra.Command{
	Use:   "count [collection]",
	Short: "Count entities per collection",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		colls := model.Collections
		if len(args) == 1 {
			coll, err := parseCollection(args[0])
			if err != nil {
				return err
			}
			colls = []model.Collection{coll}
		}
		if err := cfg.Validate("store"); err != nil {
			return err
		}
		ctx := cmd.Context()

		st, err := openMigrated(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		for _, coll := range colls {
			n, err := st.Count(ctx, coll)
			if err != nil {
				return eris.Wrapf(err, "query: count %s", coll)
			}
			fmt.Printf("%s\t%d\n", coll, n)
		}
		return nil
	},
}

func init() {
	addFilterFlags(queryListCmd)
	queryCmd.AddCommand(queryGetCmd, queryListCmd, queryCountCmd)
	rootCmd.AddCommand(queryCmd)
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("city", "", "filter by city name")
	cmd.Flags().String("county", "", "filter by county name")
	cmd.Flags().String("region", "", "filter by region name")
	cmd.Flags().Bool("exclude-ocean", false, "drop entities whose centroid is in the ocean")
	cmd.Flags().Int("limit", 0, "maximum entities (0 for all)")
	cmd.Flags().Int("offset", 0, "entities to skip")
}

func filterFlags(cmd *cobra.Command) store.Filter {
	var f store.Filter
	f.City, _ = cmd.Flags().GetString("city")
	f.County, _ = cmd.Flags().GetString("county")
	f.Region, _ = cmd.Flags().GetString("region")
	f.ExcludeOcean, _ = cmd.Flags().GetBool("exclude-ocean")
	f.Limit, _ = cmd.Flags().GetInt("limit")
	f.Offset, _ = cmd.Flags().GetInt("offset")
	return f
}

// parseCollection accepts a collection name or its singular form.
func parseCollection(s string) (model.Collection, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, c := range model.Collections {
		if name == string(c) || name+"s" == string(c) || strings.TrimSuffix(string(c), "ies")+"y" == name {
			return c, nil
		}
	}
	return "", eris.Errorf("unknown collection %q", s)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
