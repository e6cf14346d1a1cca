package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/tripstats/core/analytics"
	"github.com/kilianp07/tripstats/pkg/export"
	"github.com/kilianp07/tripstats/pkg/input"
)

var insightFlags struct {
	trips    string
	index    int
	settings string
}

var insightCmd = &cobra.Command{
	Use:     "trip",
	Aliases: []string{"insight"},
	Short:   "Score one trip against the rest of the history",
	Args:    cobra.NoArgs,
	RunE:    runInsight,
}

func init() {
	f := insightCmd.Flags()
	f.StringVarP(&insightFlags.trips, "trips", "t", input.Stdin, "trips JSON file, - for stdin")
	f.IntVarP(&insightFlags.index, "index", "i", -1, "position of the trip in the file, -1 for the last one")
	f.StringVarP(&insightFlags.settings, "settings", "s", "", "settings file (yaml or json)")
	rootCmd.AddCommand(insightCmd)
}

func runInsight(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	trips, err := input.LoadTrips(insightFlags.trips)
	if err != nil {
		return err
	}
	s, err := settingsFor(insightFlags.settings, cfg)
	if err != nil {
		return err
	}
	i := insightFlags.index
	if i < 0 {
		i = len(trips) + i
	}
	if i < 0 || i >= len(trips) {
		return fmt.Errorf("trip index %d out of range (%d trips)", insightFlags.index, len(trips))
	}
	if !trips[i].Valid() {
		return fmt.Errorf("trip %d has no usable distance", i)
	}
	return export.WriteJSON(cmd.OutOrStdout(), analytics.Insight(*trips[i], trips, s))
}
