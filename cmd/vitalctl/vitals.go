package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/vitalvision/backend/internal/config"
	"github.com/vitalvision/backend/internal/vitals"
)

func loadRangeTable() (vitals.RangeTable, error) {
	cfg, err := config.Read()
	if err != nil {
		return vitals.RangeTable{}, err
	}
	table, err := cfg.RangeTable()
	if err != nil {
		return vitals.RangeTable{}, fmt.Errorf("vitals.ranges: %w", err)
	}
	return table, nil
}

func rangesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ranges",
		Short: "Print the configured normal range of every vital sign",
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := loadRangeTable()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, k := range vitals.Kinds() {
				r, _ := table.Get(k)
				fmt.Fprintf(out, "%-18s %-30s %s\n", k, r.DisplayName, r.Description())
			}
			return nil
		},
	}
}

// evaluateFlags maps each flag to the kind it sets
var evaluateFlags = []struct {
	name  string
	kind  vitals.Kind
	usage string
}{
	{"heart-rate", vitals.HeartRate, "Heart rate in beats per minute"},
	{"systolic", vitals.SystolicPressure, "Systolic blood pressure in mmHg"},
	{"oxygen", vitals.OxygenSaturation, "Oxygen saturation in percent"},
	{"temperature", vitals.Temperature, "Body temperature in °C"},
}

func evaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate one reading against the configured ranges",
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := loadRangeTable()
			if err != nil {
				return err
			}

			reading := vitals.Reading{Timestamp: time.Now().UnixMilli()}
			for _, f := range evaluateFlags {
				if !cmd.Flags().Changed(f.name) {
					continue
				}
				v, _ := cmd.Flags().GetFloat64(f.name)
				switch f.kind {
				case vitals.HeartRate:
					reading.HeartRate = &v
				case vitals.SystolicPressure:
					reading.SystolicPressure = &v
				case vitals.OxygenSaturation:
					reading.OxygenSaturation = &v
				case vitals.Temperature:
					reading.Temperature = &v
				}
			}

			out := cmd.OutOrStdout()
			alerts, err := vitals.Evaluate(reading, table)
			var invalid *vitals.InvalidReadingError
			if errors.As(err, &invalid) {
				fmt.Fprintf(out, "INVALID %s\n", invalid.Error())
				return err
			}
			if err != nil {
				return err
			}

			if len(alerts) == 0 {
				fmt.Fprintln(out, "OK all values within normal range")
				return nil
			}
			for _, a := range alerts {
				fmt.Fprintf(out, "ALERT %s\n", a.Message)
			}
			return nil
		},
	}

	for _, f := range evaluateFlags {
		cmd.Flags().Float64(f.name, 0, f.usage)
	}
	return cmd
}
