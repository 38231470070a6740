// Package app provides emulator integration for the main application.
package app

import (
	"fmt"
	"time"

	"gones/internal/bus"
)

// samplesPerAudioFrame is the APU sample count requested per video frame at
// the fixed 44.1kHz output sample rate fillAudioSamples uses.
const samplesPerAudioFrame = 735 // 44100 / 60

// cyclesPerFrame is the NTSC CPU-cycle budget for one video frame
// (SPEC_FULL.md §2/§9): 341 dots * 262 scanlines / 3 dots-per-cycle.
const cyclesPerFrame = 29781

// Emulator drives the bus through exactly one frame per Update call, at a
// fixed NTSC cycle budget, and tracks the timing/throughput a host needs to
// pace itself and report status.
type Emulator struct {
	bus    *bus.Bus
	config *Config

	targetFrameTime time.Duration
	cyclesPerFrame  uint64

	frameBuffer  []uint32
	audioSamples []float32

	actualFrameTime  time.Duration
	emulationTime    time.Duration
	cycleCount       uint64
	frameCount       uint64
	averageFrameTime time.Duration

	isRunning     bool
	lastResetTime time.Time
}

// NewEmulator creates an emulator instance with fixed NTSC frame timing.
func NewEmulator(b *bus.Bus, config *Config) *Emulator {
	e := &Emulator{
		bus:             b,
		config:          config,
		targetFrameTime: time.Second / 60,
		cyclesPerFrame:  cyclesPerFrame,
		frameBuffer:     make([]uint32, 256*240),
		audioSamples:    make([]float32, 0, samplesPerAudioFrame),
		lastResetTime:   time.Now(),
	}
	e.Reset()
	return e
}

// Reset clears frame/audio buffers and timing counters.
func (e *Emulator) Reset() {
	e.actualFrameTime = 0
	e.emulationTime = 0
	e.cycleCount = 0
	e.frameCount = 0
	e.averageFrameTime = 0
	e.lastResetTime = time.Now()

	for i := range e.frameBuffer {
		e.frameBuffer[i] = 0
	}
	e.audioSamples = e.audioSamples[:0]
}

// Start marks the emulator as running.
func (e *Emulator) Start() { e.isRunning = true }

// Stop marks the emulator as not running; Update becomes a no-op.
func (e *Emulator) Stop() { e.isRunning = false }

// Update runs exactly one frame of emulation, intended to be called once
// per host frame tick (e.g. by Ebitengine's Update callback at 60Hz).
func (e *Emulator) Update() error {
	if !e.isRunning {
		return nil
	}

	frameStart := time.Now()
	if err := e.StepFrame(); err != nil {
		return fmt.Errorf("frame execution: %w", err)
	}

	e.actualFrameTime = time.Since(frameStart)
	if e.averageFrameTime == 0 {
		e.averageFrameTime = e.actualFrameTime
	} else {
		e.averageFrameTime = time.Duration(float64(e.averageFrameTime)*0.95 + float64(e.actualFrameTime)*0.05)
	}
	return nil
}

// fillAudioSamples pulls one frame's worth of resampled audio from the APU.
func (e *Emulator) fillAudioSamples() {
	if cap(e.audioSamples) < samplesPerAudioFrame {
		e.audioSamples = make([]float32, samplesPerAudioFrame)
	} else {
		e.audioSamples = e.audioSamples[:samplesPerAudioFrame]
	}
	e.bus.APUFillBuffer(44100, e.audioSamples, samplesPerAudioFrame)
}

// StepFrame runs the bus for exactly one NTSC frame's worth of CPU cycles
// and refreshes the frame/audio buffers.
func (e *Emulator) StepFrame() error {
	if e.bus == nil {
		return fmt.Errorf("bus not initialized")
	}

	emulationStart := time.Now()
	startCycles := e.bus.GetCycleCount()
	targetCycles := startCycles + e.cyclesPerFrame
	for e.bus.GetCycleCount() < targetCycles {
		e.bus.Step()
	}
	e.frameCount++

	nesFrameBuffer := e.bus.Framebuffer()
	copy(e.frameBuffer, nesFrameBuffer[:])
	e.fillAudioSamples()

	e.emulationTime = time.Since(emulationStart)
	e.cycleCount = e.bus.GetCycleCount()
	return nil
}

// StepInstruction executes exactly one CPU instruction, for debug tooling.
func (e *Emulator) StepInstruction() error {
	if e.bus == nil {
		return fmt.Errorf("bus not initialized")
	}
	e.bus.Step()
	e.cycleCount = e.bus.GetCycleCount()
	return nil
}

// GetFrameBuffer returns the current frame buffer.
func (e *Emulator) GetFrameBuffer() []uint32 { return e.frameBuffer }

// GetAudioSamples returns the current audio samples.
func (e *Emulator) GetAudioSamples() []float32 { return e.audioSamples }

// GetFrameCount returns the number of frames executed since the last Reset.
func (e *Emulator) GetFrameCount() uint64 { return e.frameCount }

// GetCycleCount returns the current CPU cycle count.
func (e *Emulator) GetCycleCount() uint64 { return e.cycleCount }

// GetEmulationTime returns the time spent emulating the last frame.
func (e *Emulator) GetEmulationTime() time.Duration { return e.emulationTime }

// GetActualFrameTime returns the last frame's wall-clock time including timing bookkeeping.
func (e *Emulator) GetActualFrameTime() time.Duration { return e.actualFrameTime }

// GetAverageFrameTime returns an exponentially-smoothed average frame time.
func (e *Emulator) GetAverageFrameTime() time.Duration { return e.averageFrameTime }

// GetTargetFrameTime returns the target frame time (60 FPS).
func (e *Emulator) GetTargetFrameTime() time.Duration { return e.targetFrameTime }

// GetEmulationSpeed returns emulation speed as a percentage of real-time.
func (e *Emulator) GetEmulationSpeed() float64 {
	if e.actualFrameTime == 0 {
		return 0
	}
	return float64(e.targetFrameTime) / float64(e.actualFrameTime) * 100.0
}

// IsRunning returns whether the emulator is running.
func (e *Emulator) IsRunning() bool { return e.isRunning }

// GetUptime returns the emulator uptime since last Reset.
func (e *Emulator) GetUptime() time.Duration { return time.Since(e.lastResetTime) }

// SetCyclesPerFrame overrides the per-frame CPU cycle budget, for testing.
func (e *Emulator) SetCyclesPerFrame(cycles uint64) { e.cyclesPerFrame = cycles }

// Cleanup releases emulator-owned buffers.
func (e *Emulator) Cleanup() error {
	e.Stop()
	e.frameBuffer = nil
	e.audioSamples = nil
	return nil
}
