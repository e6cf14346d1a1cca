package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/tripstats/config"
	"github.com/kilianp07/tripstats/core/analytics"
	"github.com/kilianp07/tripstats/core/metrics"
	"github.com/kilianp07/tripstats/core/model"
	"github.com/kilianp07/tripstats/infra/logger"
	"github.com/kilianp07/tripstats/pkg/export"
	"github.com/kilianp07/tripstats/pkg/input"
)

var computeFlags struct {
	trips    string
	charges  string
	settings string
	locale   string
	format   string
	series   string
}

var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Compute trip statistics from exported files",
	Args:  cobra.NoArgs,
	RunE:  runCompute,
}

func init() {
	f := computeCmd.Flags()
	f.StringVarP(&computeFlags.trips, "trips", "t", input.Stdin, "trips JSON file, - for stdin")
	f.StringVar(&computeFlags.charges, "charges", "", "charges JSON file")
	f.StringVarP(&computeFlags.settings, "settings", "s", "", "settings file (yaml or json)")
	f.StringVarP(&computeFlags.locale, "locale", "l", "", "output locale")
	f.StringVarP(&computeFlags.format, "format", "f", "json", "output format: json or csv")
	f.StringVar(&computeFlags.series, "series", export.SeriesMonthly, "csv series: monthly or daily")
	rootCmd.AddCommand(computeCmd)
}

// engineFor builds an engine from the configuration, logging to stderr.
func engineFor(cmd *cobra.Command, cfg *config.Config) (*analytics.Engine, error) {
	loc, err := cfg.Engine.Location()
	if err != nil {
		return nil, err
	}
	e := analytics.NewEngine(logger.NewWithWriter(cmd.ErrOrStderr(), "compute", os.Getenv("LOG_LEVEL")), metrics.NopSink{})
	e.Location = loc
	e.Defaults = cfg.Engine.Settings
	if e.Defaults.Locale == "" {
		e.Defaults.Locale = cfg.Engine.Locale
	}
	return e, nil
}

// settingsFor loads the settings file when given and fills it from cfg.
func settingsFor(path string, cfg *config.Config) (model.Settings, error) {
	var s model.Settings
	if path != "" {
		var err error
		if s, err = input.LoadSettings(path); err != nil {
			return model.Settings{}, err
		}
	}
	return s.WithDefaults(cfg.Engine.Settings), nil
}

func runCompute(cmd *cobra.Command, args []string) error {
	switch computeFlags.format {
	case "json", "csv":
	default:
		return fmt.Errorf("unknown format %q", computeFlags.format)
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	trips, err := input.LoadTrips(computeFlags.trips)
	if err != nil {
		return err
	}
	charges, err := input.LoadCharges(computeFlags.charges)
	if err != nil {
		return err
	}
	settings, err := settingsFor(computeFlags.settings, cfg)
	if err != nil {
		return err
	}
	engine, err := engineFor(cmd, cfg)
	if err != nil {
		return err
	}

	res, st := engine.Run(analytics.Input{
		Trips:    trips,
		Settings: settings,
		Charges:  charges,
		Locale:   computeFlags.locale,
	})
	if res == nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "no valid trips (%d dropped)\n", st.Dropped)
	}
	if computeFlags.format == "csv" {
		return export.WriteCSV(cmd.OutOrStdout(), res, computeFlags.series)
	}
	return export.WriteJSON(cmd.OutOrStdout(), res)
}
