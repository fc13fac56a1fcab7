package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"llmgen/internal/device"
	"llmgen/internal/generate"
)

func buildPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the per-device memory budget for the given topology",
		Long: `Computes the placement plan handed to the backend at model load:
floor(total*fraction) GiB per device, with a reduced share for device 0 and
a fixed host-memory fallback. Device count and memory are probed from the
environment unless given explicitly.`,
		Example: `  llmgen plan --devices 2 --device-mem-gib 40 --memory-fraction 0.8
  llmgen plan --memory-fraction 0.9`,
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, _ := cmd.Flags().GetInt("devices")
			memGiB, _ := cmd.Flags().GetFloat64("device-mem-gib")
			fraction, _ := cmd.Flags().GetFloat64("memory-fraction")

			if fraction <= 0 || fraction > 1 {
				return generate.ConfigError{Field: "memory_fraction", Reason: fmt.Sprintf("must be in (0,1], got %v", fraction)}
			}
			if !cmd.Flags().Changed("devices") || !cmd.Flags().Changed("device-mem-gib") {
				info, err := device.Default().Probe(cmd.Context())
				if err != nil {
					return err
				}
				if !cmd.Flags().Changed("devices") {
					devices = info.Count
				}
				if !cmd.Flags().Changed("device-mem-gib") {
					memGiB = info.TotalGiB
				}
			}

			plan := generate.PlanDeviceMemory(devices, fraction, memGiB)
			if plan == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "no explicit plan (backend default placement)")
				return nil
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(plan)
		},
	}
	cmd.Flags().Int("devices", 0, "Device count (default: probe)")
	cmd.Flags().Float64("device-mem-gib", 0, "Per-device total memory in GiB (default: probe)")
	cmd.Flags().Float64("memory-fraction", 1.0, "Fraction of each device's memory to budget, in (0,1]")
	return cmd
}
