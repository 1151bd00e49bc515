package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gophertribe/devtool/test"
	"github.com/spf13/cobra"
)

// integrationBusEnv names the bus the dps3xx hardware test opens.
const integrationBusEnv = "BARO_I2C_BUS"

func TestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Run unit tests of all packages",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := test.Test(); err != nil {
				return fmt.Errorf("unit tests failed: %w", err)
			}
			return nil
		},
	}
}

func LintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint",
		Short: "Run linters",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := test.Lint(); err != nil {
				return fmt.Errorf("lint failed: %w", err)
			}
			return nil
		},
	}
}

func IntegrationTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "integration-test",
		Short: "Run integration tests against a sensor on a host i2c bus",
		Long: `Run the integration-tagged tests. The dps3xx lifecycle test is skipped
unless a bus is given, either with --bus or through BARO_I2C_BUS.

Examples:
  dev integration-test --bus /dev/i2c-1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			bus, _ := cmd.Flags().GetString("bus")
			if err := exportBus(bus); err != nil {
				return err
			}
			if err := test.Integ(); err != nil {
				return fmt.Errorf("integration tests failed: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().String("bus", "", "i2c bus the sensor is attached to (e.g. /dev/i2c-1)")
	return cmd
}

func exportBus(bus string) error {
	if bus == "" {
		if current := os.Getenv(integrationBusEnv); current != "" {
			slog.Info("using bus from environment", "bus", current)
		} else {
			slog.Warn("no i2c bus given, hardware tests will be skipped")
		}
		return nil
	}
	if err := os.Setenv(integrationBusEnv, bus); err != nil {
		return fmt.Errorf("could not export %s: %w", integrationBusEnv, err)
	}
	return nil
}
