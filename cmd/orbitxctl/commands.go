package main

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kashacker/satellite-tracker-orbitx/internal/app"
	"github.com/kashacker/satellite-tracker-orbitx/internal/catalog"
	"github.com/kashacker/satellite-tracker-orbitx/internal/orbit"
)

func newPositionCmd(opts *rootOptions) *cobra.Command {
	var lat, lon, alt float64

	cmd := &cobra.Command{
		Use:   "position <catalog-number>",
		Short: "Resolve a satellite's sub-satellite point and look angles",
		Example: `  orbitxctl position 25544 --lat 51.4779 --lon -0.0015 --alt 46
  orbitxctl position 25544 --at 2025-02-14T12:00:00Z --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catnr, err := parseCatalogNumber(args[0])
			if err != nil {
				return err
			}
			if math.Abs(lat) > 90 || math.Abs(lon) > 180 {
				return fmt.Errorf("observer outside |lat| <= 90, |lon| <= 180")
			}
			observer := orbit.Observer{LatitudeDeg: lat, LongitudeDeg: lon, AltitudeMeters: alt}

			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				set, pos, err := a.Service.ResolvePosition(ctx, catnr, observer)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if opts.asJSON {
					return printJSON(out, map[string]any{
						"satid":    set.CatalogNumber,
						"satname":  set.Name,
						"position": pos,
					})
				}
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintf(tw, "satellite\t%s (%d)\n", set.Name, set.CatalogNumber)
				fmt.Fprintf(tw, "latitude\t%.4f°\n", pos.SubLatitudeDeg)
				fmt.Fprintf(tw, "longitude\t%.4f°\n", pos.SubLongitudeDeg)
				fmt.Fprintf(tw, "altitude\t%.2f km\n", pos.AltitudeKm)
				fmt.Fprintf(tw, "azimuth\t%.2f°\n", pos.AzimuthDeg)
				fmt.Fprintf(tw, "elevation\t%.2f°\n", pos.ElevationDeg)
				fmt.Fprintf(tw, "range\t%.2f km\n", pos.RangeKm)
				fmt.Fprintf(tw, "timestamp\t%d\n", pos.EpochUnixSeconds)
				return tw.Flush()
			})
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "observer latitude in degrees")
	cmd.Flags().Float64Var(&lon, "lon", 0, "observer longitude in degrees")
	cmd.Flags().Float64Var(&alt, "alt", 0, "observer altitude in meters")
	return cmd
}

func newTLECmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tle <catalog-number>",
		Short: "Print the current element set for a satellite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catnr, err := parseCatalogNumber(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				set, err := a.Service.ElementSet(ctx, catnr)
				if err != nil {
					return err
				}
				if opts.asJSON {
					return printJSON(cmd.OutOrStdout(), set)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n%s\n", set.Name, set.Line1, set.Line2)
				return nil
			})
		},
	}
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search the catalog by name, catalog number or category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				res := a.Service.SearchSatellites(ctx, args[0])
				if opts.asJSON {
					return printJSON(cmd.OutOrStdout(), map[string]any{
						"satellites": res.Entries,
						"total":      res.Total,
						"query":      strings.ToLower(args[0]),
					})
				}
				if err := printEntries(cmd, res.Entries); err != nil {
					return err
				}
				if res.Total > len(res.Entries) {
					fmt.Fprintf(cmd.OutOrStdout(), "(%d of %d matches shown)\n", len(res.Entries), res.Total)
				}
				return nil
			})
		},
	}
}

func newSatellitesCmd(opts *rootOptions) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "satellites",
		Short: "List the merged catalog, optionally for one category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				var entries []catalog.Entry
				if category != "" {
					entries = a.Service.SatellitesByCategory(ctx, category)
				} else {
					entries = a.Service.ListSatellites(ctx)
				}
				if opts.asJSON {
					return printJSON(cmd.OutOrStdout(), entries)
				}
				return printEntries(cmd, entries)
			})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only list this category (case-insensitive)")
	return cmd
}

func newCategoriesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Count catalog entries per category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				counts := categoryCounts(a.Service.ListSatellites(ctx))
				if opts.asJSON {
					return printJSON(cmd.OutOrStdout(), counts)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, c := range counts {
					fmt.Fprintf(tw, "%s\t%d\n", c.Category, c.Count)
				}
				return tw.Flush()
			})
		},
	}
}

type categoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// categoryCounts groups entries by category, largest first, ties by name.
func categoryCounts(entries []catalog.Entry) []categoryCount {
	byName := make(map[string]int)
	for _, e := range entries {
		byName[e.Category]++
	}
	out := make([]categoryCount, 0, len(byName))
	for name, n := range byName {
		out = append(out, categoryCount{Category: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func printEntries(cmd *cobra.Command, entries []catalog.Entry) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SATID\tNAME\tCATEGORY")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", e.CatalogNumber, e.Name, e.Category)
	}
	return tw.Flush()
}
