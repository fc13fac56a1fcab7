// Package device discovers accelerator devices and their memory capacity.
// The result feeds the memory planner exactly once at model-load time; the
// planner itself stays a pure function of the probed values so it can be
// tested without real hardware.
package device

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Info describes the visible accelerators. A zero Info means none were
// found, which downstream callers treat as "no explicit memory plan".
type Info struct {
	// Count is the number of visible devices.
	Count int
	// TotalGiB is the memory capacity of device 0 in GiB. Devices are
	// assumed homogeneous; heterogeneous rigs would need per-device totals.
	TotalGiB float64
}

// Prober reports the visible accelerator devices.
type Prober interface {
	Probe(ctx context.Context) (Info, error)
}

// Static is a fixed-answer prober for tests and manual overrides.
type Static struct{ Info Info }

func (s Static) Probe(ctx context.Context) (Info, error) { return s.Info, nil }

// Env vars honored by Default before falling back to nvidia-smi.
const (
	envDeviceCount = "LLMGEN_DEVICE_COUNT"
	envDeviceMem   = "LLMGEN_DEVICE_MEM_GIB"
)

// Default returns the standard prober: environment overrides when both are
// set, otherwise the nvidia-smi query.
func Default() Prober {
	if c, ok := fromEnv(); ok {
		return Static{Info: c}
	}
	return SMIProber{}
}

func fromEnv() (Info, bool) {
	cs, ms := os.Getenv(envDeviceCount), os.Getenv(envDeviceMem)
	if cs == "" || ms == "" {
		return Info{}, false
	}
	count, err := strconv.Atoi(cs)
	if err != nil || count < 0 {
		return Info{}, false
	}
	mem, err := strconv.ParseFloat(ms, 64)
	if err != nil || mem < 0 {
		return Info{}, false
	}
	return Info{Count: count, TotalGiB: mem}, true
}

// SMIProber queries nvidia-smi for device count and memory capacity.
type SMIProber struct {
	// Bin overrides the nvidia-smi binary path, mostly for tests.
	Bin string
}

func (p SMIProber) Probe(ctx context.Context) (Info, error) {
	bin := p.Bin
	if bin == "" {
		bin = "nvidia-smi"
	}
	if _, err := exec.LookPath(bin); err != nil {
		// No driver tooling present: report zero devices rather than fail,
		// the caller falls back to default placement.
		return Info{}, nil
	}
	out, err := exec.CommandContext(ctx, bin, "--query-gpu=memory.total", "--format=csv,noheader,nounits").Output()
	if err != nil {
		return Info{}, nil
	}
	return parseSMIMemory(string(out))
}

// parseSMIMemory parses `--query-gpu=memory.total --format=csv,noheader,nounits`
// output: one MiB value per line, one line per device.
func parseSMIMemory(out string) (Info, error) {
	var info Info
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		mib, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return Info{}, fmt.Errorf("parse nvidia-smi memory %q: %w", line, err)
		}
		if info.Count == 0 {
			info.TotalGiB = mib / 1024
		}
		info.Count++
	}
	return info, nil
}
