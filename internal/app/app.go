// Package app wires the core (internal/bus and everything it owns) to a
// graphics backend and drives the outer frame loop.
package app

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"gones/internal/bus"
	"gones/internal/cartridge"
	"gones/internal/graphics"
	"gones/internal/input"
)

// Application owns the emulated machine, the chosen graphics backend, and
// the host-side frame loop that ties them together.
type Application struct {
	bus *bus.Bus

	graphicsBackend graphics.Backend
	window          graphics.Window
	videoProcessor  *graphics.VideoProcessor

	config   *Config
	emulator *Emulator

	running     bool
	paused      bool
	showMenu    bool
	initialized bool
	headless    bool

	frameCount          uint64
	startTime           time.Time
	lastFPSTime         time.Time
	frameCountAtLastFPS uint64
	currentFPS          float64

	romPath   string
	cartridge *cartridge.Cartridge

	lastESCTime time.Time

	lastControllerState [8]bool

	debugFrameCounter uint64
}

// ApplicationError wraps a component/operation pair around the failure that
// aborted it.
type ApplicationError struct {
	Component string
	Operation string
	Err       error
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("application %s error during %s: %v", e.Component, e.Operation, e.Err)
}

// NewApplication builds a windowed Application using config at configPath
// (or defaults if configPath is empty).
func NewApplication(configPath string) (*Application, error) {
	return NewApplicationWithMode(configPath, false)
}

// NewApplicationWithMode is NewApplication with an explicit headless switch,
// used by -nogui and by tests.
func NewApplicationWithMode(configPath string, headless bool) (*Application, error) {
	app := &Application{
		config:      NewConfig(),
		headless:    headless,
		startTime:   time.Now(),
		lastFPSTime: time.Now(),
	}

	if configPath != "" {
		if err := app.config.LoadFromFile(configPath); err != nil {
			log.Printf("[app] could not load config from %s, using defaults: %v", configPath, err)
		}
	}

	if err := app.initializeComponents(headless); err != nil {
		return nil, &ApplicationError{Component: "initialization", Operation: "component setup", Err: err}
	}

	return app, nil
}

func (app *Application) initializeComponents(headless bool) error {
	app.bus = bus.New()

	if err := app.initializeGraphicsBackend(headless); err != nil {
		return fmt.Errorf("graphics backend: %w", err)
	}

	app.emulator = NewEmulator(app.bus, app.config)
	app.initialized = true
	return nil
}

func (app *Application) initializeGraphicsBackend(headless bool) error {
	var backendType graphics.BackendType
	if headless {
		backendType = graphics.BackendHeadless
	} else {
		switch app.config.Video.Backend {
		case "headless":
			backendType = graphics.BackendHeadless
		case "terminal":
			backendType = graphics.BackendTerminal
		default:
			backendType = graphics.BackendEbitengine
		}
	}

	var err error
	app.graphicsBackend, err = graphics.CreateBackend(backendType)
	if err != nil {
		return fmt.Errorf("create backend: %w", err)
	}

	graphicsConfig := graphics.Config{
		WindowTitle:  "gones - NES core",
		WindowWidth:  app.config.Window.Width,
		WindowHeight: app.config.Window.Height,
		Fullscreen:   app.config.Window.Fullscreen,
		VSync:        app.config.Video.VSync,
		Filter:       app.config.Video.Filter,
		AspectRatio:  app.config.Video.AspectRatio,
		Headless:     headless,
		Debug:        app.config.Debug.EnableLogging,
	}

	if err := app.graphicsBackend.Initialize(graphicsConfig); err != nil {
		if backendType != graphics.BackendEbitengine {
			return fmt.Errorf("initialize backend: %w", err)
		}
		log.Printf("[app] ebitengine backend failed (%v), falling back to headless", err)
		app.graphicsBackend, err = graphics.CreateBackend(graphics.BackendHeadless)
		if err != nil {
			return fmt.Errorf("create fallback headless backend: %w", err)
		}
		graphicsConfig.Headless = true
		if err := app.graphicsBackend.Initialize(graphicsConfig); err != nil {
			return fmt.Errorf("initialize fallback headless backend: %w", err)
		}
	}

	if !headless && !app.graphicsBackend.IsHeadless() {
		app.window, err = app.graphicsBackend.CreateWindow(
			graphicsConfig.WindowTitle, graphicsConfig.WindowWidth, graphicsConfig.WindowHeight)
		if err != nil {
			return fmt.Errorf("create window: %w", err)
		}
	}

	app.videoProcessor = graphics.NewVideoProcessor(
		app.config.Video.Brightness, app.config.Video.Contrast, app.config.Video.Saturation)
	return nil
}

// LoadROM loads romPath into the cartridge slot and resets the machine.
func (app *Application) LoadROM(romPath string) error {
	if !app.initialized {
		return errors.New("application not initialized")
	}

	cart, err := cartridge.LoadFromFile(romPath)
	if err != nil {
		return &ApplicationError{Component: "cartridge", Operation: "load ROM", Err: err}
	}

	app.cartridge = cart
	app.romPath = romPath
	app.bus.LoadCartridge(cart)
	app.bus.Reset()

	if app.window != nil {
		app.window.SetTitle(fmt.Sprintf("gones - %s", filepath.Base(romPath)))
	}

	app.emulator.Start()
	return nil
}

// Run drives the main application loop until Stop is called or the window
// closes. For the Ebitengine backend this hands control to ebiten's own
// run loop via a per-frame callback; other backends use a simple ticked loop.
func (app *Application) Run() error {
	if !app.initialized {
		return errors.New("application not initialized")
	}

	app.running = true
	app.startTime = time.Now()
	app.lastFPSTime = time.Now()

	if app.config.Debug.EnableLogging {
		log.Printf("[app] starting with %s backend", app.graphicsBackend.GetName())
	}

	if app.graphicsBackend.GetName() == "Ebitengine" && app.window != nil {
		if ebitengineWindow, ok := graphics.AsEbitengineWindow(app.window); ok {
			ebitengineWindow.SetEmulatorUpdateFunc(func() error {
				if err := app.processInput(); err != nil && app.config.Debug.EnableLogging {
					log.Printf("[app] input processing error: %v", err)
				}
				if err := app.updateEmulator(); err != nil {
					return err
				}
				if err := app.render(); err != nil {
					return err
				}
				app.updateFPS()
				if app.window != nil && app.window.ShouldClose() {
					app.Stop()
				}
				return nil
			})
			return ebitengineWindow.Run()
		}
	}

	for app.running {
		if err := app.processInput(); err != nil && app.config.Debug.EnableLogging {
			log.Printf("[app] input processing error: %v", err)
		}
		if err := app.updateEmulator(); err != nil && app.config.Debug.EnableLogging {
			log.Printf("[app] emulator update error: %v", err)
		}
		if err := app.render(); err != nil && app.config.Debug.EnableLogging {
			log.Printf("[app] render error: %v", err)
		}
		app.updateFPS()

		if app.window != nil && app.window.ShouldClose() {
			app.Stop()
		}
		time.Sleep(16 * time.Millisecond) // ~60Hz pacing for non-Ebitengine backends
	}

	if app.config.Debug.EnableLogging {
		log.Println("[app] main loop ended")
	}
	return nil
}

func (app *Application) updateEmulator() error {
	if !app.paused && app.cartridge != nil {
		return app.emulator.Update()
	}
	return nil
}

func (app *Application) processInput() error {
	if app.window == nil {
		return nil
	}

	events := app.window.PollEvents()
	if len(events) == 0 {
		return nil
	}

	var controllerChanged bool
	controllerButtons := app.lastControllerState

	for _, event := range events {
		switch event.Type {
		case graphics.InputEventTypeQuit:
			app.Stop()
			return nil

		case graphics.InputEventTypeButton:
			if app.handleSpecialInput(event) {
				continue
			}
			if app.cartridge == nil {
				continue
			}
			button, ok := graphicsButtonToInputButton(event.Button)
			if !ok {
				continue
			}
			idx, ok := controllerBitIndex(button)
			if !ok {
				continue
			}
			controllerButtons[idx] = event.Pressed
			controllerChanged = true

		case graphics.InputEventTypeKey:
			app.handleKeyInput(event)
		}
	}

	if controllerChanged && app.bus != nil && app.cartridge != nil && controllerButtons != app.lastControllerState {
		app.debugFrameCounter++
		if app.config.Debug.EnableLogging && app.debugFrameCounter%300 == 0 {
			log.Printf("[app] controller: A:%t B:%t Sel:%t Start:%t U:%t D:%t L:%t R:%t",
				controllerButtons[0], controllerButtons[1], controllerButtons[2], controllerButtons[3],
				controllerButtons[4], controllerButtons[5], controllerButtons[6], controllerButtons[7])
		}
		app.SetControllerButtons(controllerButtons)
		app.lastControllerState = controllerButtons
	}

	return nil
}

// controllerBitIndex maps a button to its NES shift-register bit position
// (A, B, Select, Start, Up, Down, Left, Right — SPEC_FULL.md §4.6).
func controllerBitIndex(button input.Button) (int, bool) {
	switch button {
	case input.ButtonA:
		return 0, true
	case input.ButtonB:
		return 1, true
	case input.ButtonSelect:
		return 2, true
	case input.ButtonStart:
		return 3, true
	case input.ButtonUp:
		return 4, true
	case input.ButtonDown:
		return 5, true
	case input.ButtonLeft:
		return 6, true
	case input.ButtonRight:
		return 7, true
	default:
		return 0, false
	}
}

// handleSpecialInput intercepts key events the application itself consumes
// (quit confirmation) before they would otherwise be ignored as unmapped.
func (app *Application) handleSpecialInput(event graphics.InputEvent) bool {
	if !event.Pressed {
		return false
	}

	if event.Type == graphics.InputEventTypeKey && event.Key == graphics.KeyEscape {
		now := time.Now()
		if !app.lastESCTime.IsZero() && now.Sub(app.lastESCTime) < 3*time.Second {
			log.Println("[app] ESC double-tap confirmed, shutting down")
			app.Stop()
			return true
		}
		log.Println("[app] ESC pressed once, press again within 3s to quit")
		app.lastESCTime = now
		return true
	}

	if event.Type == graphics.InputEventTypeKey && event.Key != graphics.KeyEscape {
		app.lastESCTime = time.Time{}
	}

	return false
}

func (app *Application) handleKeyInput(event graphics.InputEvent) bool {
	return false
}

// graphicsButtonToInputButton converts a graphics.Button to the controller's
// input.Button, reporting false for anything outside the single 8-button pad
// this core wires (SPEC_FULL.md §4.6 specifies one controller at $4016).
func graphicsButtonToInputButton(gButton graphics.Button) (input.Button, bool) {
	switch gButton {
	case graphics.ButtonA:
		return input.ButtonA, true
	case graphics.ButtonB:
		return input.ButtonB, true
	case graphics.ButtonSelect:
		return input.ButtonSelect, true
	case graphics.ButtonStart:
		return input.ButtonStart, true
	case graphics.ButtonUp:
		return input.ButtonUp, true
	case graphics.ButtonDown:
		return input.ButtonDown, true
	case graphics.ButtonLeft:
		return input.ButtonLeft, true
	case graphics.ButtonRight:
		return input.ButtonRight, true
	default:
		return 0, false
	}
}

// SetControllerButtons applies all eight button states to the controller at once.
func (app *Application) SetControllerButtons(buttons [8]bool) {
	if app.bus == nil {
		return
	}
	app.bus.SetButton(input.ButtonA, buttons[0])
	app.bus.SetButton(input.ButtonB, buttons[1])
	app.bus.SetButton(input.ButtonSelect, buttons[2])
	app.bus.SetButton(input.ButtonStart, buttons[3])
	app.bus.SetButton(input.ButtonUp, buttons[4])
	app.bus.SetButton(input.ButtonDown, buttons[5])
	app.bus.SetButton(input.ButtonLeft, buttons[6])
	app.bus.SetButton(input.ButtonRight, buttons[7])
}

// GetBus returns the bus for direct access (useful for testing and advanced control).
func (app *Application) GetBus() *bus.Bus {
	return app.bus
}

func (app *Application) render() error {
	if app.window == nil {
		return nil
	}

	if app.cartridge != nil {
		nesFrameBuffer := app.bus.Framebuffer()
		frameBufferSlice := nesFrameBuffer[:]

		if app.videoProcessor != nil {
			frameBufferSlice = app.videoProcessor.ProcessFrame(frameBufferSlice)
		}

		var frameBuffer [256 * 240]uint32
		copy(frameBuffer[:], frameBufferSlice)
		if err := app.window.RenderFrame(frameBuffer); err != nil {
			return fmt.Errorf("render frame: %w", err)
		}
	}

	app.window.SwapBuffers()
	return nil
}

// updateFPS refreshes the once-a-second FPS counter surfaced by GetFPS.
func (app *Application) updateFPS() {
	app.frameCount++
	now := time.Now()
	if now.Sub(app.lastFPSTime) < time.Second {
		return
	}
	elapsed := now.Sub(app.lastFPSTime).Seconds()
	framesInPeriod := app.frameCount - app.frameCountAtLastFPS
	app.currentFPS = float64(framesInPeriod) / elapsed
	app.lastFPSTime = now
	app.frameCountAtLastFPS = app.frameCount

	if app.config.Debug.EnableLogging {
		log.Printf("[app] %.1f FPS (frame %d)", app.currentFPS, app.frameCount)
	}
}

// Stop stops the main loop.
func (app *Application) Stop() { app.running = false }

// Pause pauses emulation.
func (app *Application) Pause() { app.paused = true }

// Resume resumes emulation.
func (app *Application) Resume() { app.paused = false }

// TogglePause flips the paused state.
func (app *Application) TogglePause() { app.paused = !app.paused }

// ShowMenu shows the (currently minimal) pause menu.
func (app *Application) ShowMenu() { app.showMenu = true; app.paused = true }

// HideMenu hides the pause menu.
func (app *Application) HideMenu() { app.showMenu = false; app.paused = false }

// ToggleMenu flips menu visibility.
func (app *Application) ToggleMenu() {
	if app.showMenu {
		app.HideMenu()
	} else {
		app.ShowMenu()
	}
}

// Reset performs a machine reset (equivalent to the NES RESET line).
func (app *Application) Reset() {
	if app.bus != nil {
		app.bus.Reset()
	}
}

// IsRunning reports whether the main loop is active.
func (app *Application) IsRunning() bool { return app.running }

// IsPaused reports whether emulation is paused.
func (app *Application) IsPaused() bool { return app.paused }

// IsMenuVisible reports whether the pause menu is showing.
func (app *Application) IsMenuVisible() bool { return app.showMenu }

// GetFPS returns the most recently measured frames-per-second.
func (app *Application) GetFPS() float64 { return app.currentFPS }

// GetFrameCount returns the total number of frames rendered.
func (app *Application) GetFrameCount() uint64 { return app.frameCount }

// GetUptime returns how long the application has been running.
func (app *Application) GetUptime() time.Duration { return time.Since(app.startTime) }

// GetROMPath returns the currently loaded ROM path.
func (app *Application) GetROMPath() string { return app.romPath }

// GetConfig returns the application configuration.
func (app *Application) GetConfig() *Config { return app.config }

// ApplyDebugSettings logs a one-time snapshot of CPU/PPU state when debug
// logging is enabled. The bus has no per-subsystem debug toggles; this just
// reports what GetCPUState/GetPPUState already expose.
func (app *Application) ApplyDebugSettings() {
	if app.config == nil || !app.config.Debug.EnableLogging || app.bus == nil {
		return
	}
	cpuState := app.bus.GetCPUState()
	ppuState := app.bus.GetPPUState()
	log.Printf("[app] CPU PC=%04X A=%02X X=%02X Y=%02X SP=%02X cycles=%d",
		cpuState.PC, cpuState.A, cpuState.X, cpuState.Y, cpuState.SP, cpuState.Cycles)
	log.Printf("[app] PPU scanline=%d cycle=%d frame=%d vblank=%t rendering=%t",
		ppuState.Scanline, ppuState.Cycle, ppuState.FrameCount, ppuState.VBlankFlag, ppuState.RenderingOn)
}

// Cleanup releases all resources and shuts down the application.
func (app *Application) Cleanup() error {
	if app.config != nil && app.config.Debug.EnableLogging {
		log.Println("[app] cleaning up")
	}

	var lastErr error

	if app.emulator != nil {
		if err := app.emulator.Cleanup(); err != nil {
			lastErr = err
			log.Printf("[app] emulator cleanup error: %v", err)
		}
	}

	if app.window != nil {
		if err := app.window.Cleanup(); err != nil {
			lastErr = err
			log.Printf("[app] window cleanup error: %v", err)
		}
	}

	if app.graphicsBackend != nil {
		if err := app.graphicsBackend.Cleanup(); err != nil {
			lastErr = err
			log.Printf("[app] graphics backend cleanup error: %v", err)
		}
	}

	app.initialized = false
	return lastErr
}
