package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/kilianp07/tripstats/core/battery"
	"github.com/kilianp07/tripstats/pkg/export"
	"github.com/kilianp07/tripstats/pkg/input"
)

var sohFlags struct {
	charges  string
	settings string
}

var socFlags struct {
	prevOdometer float64
	prevSoC      float64
	odometer     float64
	efficiency   float64
	batterySize  float64
}

var sohCmd = &cobra.Command{
	Use:   "soh",
	Short: "Estimate battery state of health from a charging history",
	Args:  cobra.NoArgs,
	RunE:  runSoH,
}

var socCmd = &cobra.Command{
	Use:   "soc",
	Short: "Estimate the state of charge at an odometer reading",
	Args:  cobra.NoArgs,
	RunE:  runSoC,
}

func init() {
	f := sohCmd.Flags()
	f.StringVar(&sohFlags.charges, "charges", input.Stdin, "charges JSON file, - for stdin")
	f.StringVarP(&sohFlags.settings, "settings", "s", "", "settings file (yaml or json)")

	g := socCmd.Flags()
	g.Float64Var(&socFlags.prevOdometer, "prev-odometer", 0, "odometer at the last charge (km)")
	g.Float64Var(&socFlags.prevSoC, "prev-soc", 0, "state of charge at the end of the last charge (%)")
	g.Float64Var(&socFlags.odometer, "odometer", 0, "current odometer (km)")
	g.Float64Var(&socFlags.efficiency, "efficiency", 0, "average consumption (kWh/100km)")
	g.Float64Var(&socFlags.batterySize, "battery", 0, "usable battery capacity (kWh), defaults to the configured size")
	_ = socCmd.MarkFlagRequired("prev-odometer")
	_ = socCmd.MarkFlagRequired("prev-soc")
	_ = socCmd.MarkFlagRequired("odometer")
	_ = socCmd.MarkFlagRequired("efficiency")

	rootCmd.AddCommand(sohCmd, socCmd)
}

func runSoH(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	charges, err := input.LoadCharges(sohFlags.charges)
	if err != nil {
		return err
	}
	s, err := settingsFor(sohFlags.settings, cfg)
	if err != nil {
		return err
	}
	res := battery.EstimateSoH(charges, s.MfgDate, s.BatterySize, s.ChargerTypes, s.Thermal())
	return export.WriteJSON(cmd.OutOrStdout(), res)
}

func runSoC(cmd *cobra.Command, args []string) error {
	size := socFlags.batterySize
	if size == 0 {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		size = cfg.Engine.Settings.BatterySize
	}
	prev := battery.PriorCharge{Odometer: &socFlags.prevOdometer, FinalPercentage: &socFlags.prevSoC}
	soc, ok := battery.EstimateInitialSoC(prev, socFlags.odometer, socFlags.efficiency, size)
	if !ok {
		return errors.New("not enough data to estimate state of charge")
	}
	return export.WriteJSON(cmd.OutOrStdout(), map[string]float64{"soc": soc})
}
