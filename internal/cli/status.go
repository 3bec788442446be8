package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/powergram/powergram/internal/infra/sensors"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print a one-shot local sensor readout",
	RunE: func(cmd *cobra.Command, args []string) error {
		reader := sensors.New(false)

		battery := reader.ReadBattery()
		if battery.Known() {
			fmt.Printf("Battery:  %d%% (%s)\n", battery.Percent, battery.State)
		} else {
			fmt.Println("Battery:  no data")
		}

		if temp, ok := reader.CPUTemp(); ok {
			fmt.Printf("CPU temp: %.1f°C\n", temp)
		} else {
			fmt.Println("CPU temp: no data")
		}

		fmt.Printf("Fan:      %s\n", reader.FanStatus())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
