package platform

import (
	"os"
	"os/exec"
	"runtime"
)

// Platform identifies the hardware flavor the stack runs on.
type Platform string

const (
	AppleSilicon Platform = "apple-silicon"
	NvidiaGPU    Platform = "nvidia-gpu"
	CPUOnly      Platform = "cpu-only"
)

// Valid reports whether p is one of the known platform identifiers.
func (p Platform) Valid() bool {
	switch p {
	case AppleSilicon, NvidiaGPU, CPUOnly:
		return true
	}
	return false
}

// HostFacts are the raw observations detection is computed from. Separated
// from Detect so tests can exercise the decision table without a real host.
type HostFacts struct {
	OS           string
	Arch         string
	NvidiaSMI    bool
	NvidiaDriver bool
}

// Detect inspects the current host and returns its platform. Detection never
// fails: when host facts are unobtainable the conservative cpu-only platform
// is returned so lifecycle operations remain attemptable.
func Detect() Platform {
	return FromFacts(gatherFacts())
}

// FromFacts maps host facts to a platform identifier.
func FromFacts(facts HostFacts) Platform {
	if facts.OS == "darwin" && facts.Arch == "arm64" {
		return AppleSilicon
	}
	if facts.NvidiaSMI || facts.NvidiaDriver {
		return NvidiaGPU
	}
	return CPUOnly
}

func gatherFacts() HostFacts {
	facts := HostFacts{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
	}
	if _, err := exec.LookPath("nvidia-smi"); err == nil {
		facts.NvidiaSMI = true
	}
	if _, err := os.Stat("/proc/driver/nvidia/version"); err == nil {
		facts.NvidiaDriver = true
	}
	return facts
}
