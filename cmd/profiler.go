package cmd

import (
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/ndnfwd/corefwd/core"
)

// profilerModule names this file's log module.
type profilerModule struct{}

func (profilerModule) String() string { return "Profiler" }

// Profiler drives the optional CPU/memory/block profiles named by
// --cpu-profile/--mem-profile/--block-profile.
type Profiler struct {
	config  *core.Config
	cpuFile *os.File
	block   *pprof.Profile
}

// NewProfiler constructs a Profiler reading its output paths from config.
func NewProfiler(config *core.Config) *Profiler {
	return &Profiler{config: config}
}

func (p *Profiler) String() string { return "profiler" }

// Start begins CPU and block profiling where configured, creating the
// CPU profile output; the block and memory profiles are written out by
// Stop.
func (p *Profiler) Start() (err error) {
	if p.config.CpuProfile != "" {
		p.cpuFile, err = os.Create(p.config.CpuProfile)
		if err != nil {
			return err
		}
		core.Log.Info(p, "profiling cpu", "out", p.config.CpuProfile)
		pprof.StartCPUProfile(p.cpuFile)
	}

	if p.config.BlockProfile != "" {
		core.Log.Info(p, "profiling blocking operations", "out", p.config.BlockProfile)
		runtime.SetBlockProfileRate(1)
		p.block = pprof.Lookup("block")
	}

	return nil
}

// Stop flushes and closes every profile output that was started.
func (p *Profiler) Stop() {
	if p.block != nil {
		blockFile, err := os.Create(p.config.BlockProfile)
		if err != nil {
			core.Log.Warn(p, "failed to open block profile output", "error", err)
		} else {
			if err := p.block.WriteTo(blockFile, 0); err != nil {
				core.Log.Warn(p, "failed to write block profile", "error", err)
			}
			blockFile.Close()
		}
	}

	if p.config.MemProfile != "" {
		memFile, err := os.Create(p.config.MemProfile)
		if err != nil {
			core.Log.Warn(p, "failed to open memory profile output", "error", err)
		} else {
			runtime.GC()
			if err := pprof.WriteHeapProfile(memFile); err != nil {
				core.Log.Warn(p, "failed to write memory profile", "error", err)
			}
			memFile.Close()
		}
	}

	if p.cpuFile != nil {
		pprof.StopCPUProfile()
		p.cpuFile.Close()
	}
}
