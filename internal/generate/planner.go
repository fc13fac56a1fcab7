package generate

import (
	"math"
	"strconv"
)

// HostKey is the MemoryBudget key for host (CPU) memory, used for parameter
// offload when the devices cannot hold the whole model.
const HostKey = "cpu"

// hostFallbackGiB is the fixed host-memory allowance. Generous on purpose;
// lower it if the host has less RAM than this.
const hostFallbackGiB = 400

// device0Discount shrinks device 0's budget relative to the others. During
// sharded inference, activation and bookkeeping overhead concentrates on the
// first device, so giving it a full share leads to OOM there first.
const device0Discount = 0.6

// MemoryBudget maps a device key ("0".."N-1", or HostKey) to a whole-GiB
// allowance. A nil budget means "no explicit plan": the backend uses its own
// default placement. Computed once per model load and immutable afterwards.
type MemoryBudget map[string]int

// PlanDeviceMemory decides how much memory each device may use before the
// model is loaded. It is a pure function of its arguments: device discovery
// and total-memory queries happen elsewhere (internal/device), which keeps
// the planner testable without accelerator hardware.
//
// Planning is skipped (nil is returned) when fraction is 1.0, when there is
// at most one device, or when the per-device total is unknown. Explicit
// planning only pays off when sharding across multiple devices, where the
// backend's default placement over-allocates device 0.
func PlanDeviceMemory(deviceCount int, fraction float64, perDeviceTotalGiB float64) MemoryBudget {
	if fraction == 1.0 || deviceCount <= 1 || perDeviceTotalGiB <= 0 {
		return nil
	}
	budget := make(MemoryBudget, deviceCount+1)
	for i := 0; i < deviceCount; i++ {
		share := perDeviceTotalGiB * fraction
		if i == 0 {
			share *= device0Discount
		}
		// floor, not round: never request more than is safely available
		budget[strconv.Itoa(i)] = int(math.Floor(share))
	}
	budget[HostKey] = hostFallbackGiB
	return budget
}
