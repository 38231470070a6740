// Package main implements the gones NES emulator executable.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"gones/internal/app"
	"gones/internal/version"
)

func main() {
	var (
		romFile    = flag.String("rom", "", "Path to NES ROM file (optional for GUI mode)")
		configFile = flag.String("config", "", "Path to configuration file")
		debug      = flag.Bool("debug", false, "Enable debug mode")
		nogui      = flag.Bool("nogui", false, "Run without GUI (headless mode)")
		help       = flag.Bool("help", false, "Show help message")
		showVer    = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *help {
		printUsage()
		os.Exit(0)
	}
	if *showVer {
		version.PrintBuildInfo()
		os.Exit(0)
	}

	setupGracefulShutdown()

	configPath := *configFile
	if configPath == "" {
		configPath = app.GetDefaultConfigPath()
	}

	application, err := app.NewApplicationWithMode(configPath, *nogui)
	if err != nil {
		log.Fatalf("create application: %v", err)
	}

	if *nogui {
		application.GetConfig().Video.Backend = "headless"
	}
	defer func() {
		if err := application.Cleanup(); err != nil {
			log.Printf("application cleanup error: %v", err)
		}
	}()

	if *debug {
		application.GetConfig().UpdateDebug(true, true, true)
		application.ApplyDebugSettings()
	}

	if *romFile != "" {
		if err := application.LoadROM(*romFile); err != nil {
			log.Fatalf("load ROM: %v", err)
		}
		if *debug {
			application.ApplyDebugSettings()
		}
	}

	if *nogui {
		if *romFile == "" {
			log.Fatal("ROM file required for headless mode")
		}
		runHeadlessMode(application)
	} else if err := runGUIMode(application); err != nil {
		log.Fatalf("GUI mode failed: %v", err)
	}
}

// runGUIMode hands control to the windowed Application loop and reports a
// short session summary once it returns.
func runGUIMode(application *app.Application) error {
	config := application.GetConfig()
	windowWidth, windowHeight := config.GetWindowResolution()
	log.Printf("window: %dx%d (scale %dx)", windowWidth, windowHeight, config.Window.Scale)
	log.Printf("audio: %s (%d Hz, %.0f%% volume)", enabledString(config.Audio.Enabled), config.Audio.SampleRate, config.Audio.Volume*100)
	log.Printf("video: %s filter, %s aspect, vsync %s", config.Video.Filter, config.Video.AspectRatio, enabledString(config.Video.VSync))

	if err := application.Run(); err != nil {
		return fmt.Errorf("application run: %w", err)
	}

	log.Printf("session: %d frames in %v (avg %.1f FPS)",
		application.GetFrameCount(), application.GetUptime(), application.GetFPS())
	return nil
}

// headlessFrameTarget is how many frames runHeadlessMode executes before
// reporting and exiting; 120 frames is ~2s of NTSC emulation at 60Hz.
const headlessFrameTarget = 120

// headlessDumpFrames are the 1-indexed frame numbers whose framebuffer gets
// written out as a PPM for inspection without a display.
var headlessDumpFrames = map[int]bool{31: true, 61: true, 120: true}

// runHeadlessMode runs the emulator for a fixed number of frames without a
// window, dumping a few sample frames as PPM images for inspection.
func runHeadlessMode(application *app.Application) {
	b := application.GetBus()
	if b == nil {
		log.Println("headless: bus not initialized")
		return
	}

	for frame := 1; frame <= headlessFrameTarget; frame++ {
		b.StepFrame()

		if headlessDumpFrames[frame] {
			fb := *b.Framebuffer()
			name := fmt.Sprintf("frame_%03d.ppm", frame)
			if err := saveFrameBufferAsPPM(fb, name); err != nil {
				log.Printf("headless: save %s: %v", name, err)
				continue
			}
			logFrameBufferStats(fb, frame)
		}
	}

	log.Printf("headless: completed %d frames", headlessFrameTarget)
}

// saveFrameBufferAsPPM writes frameBuffer out as a plain (ASCII) PPM image.
func saveFrameBufferAsPPM(frameBuffer [256 * 240]uint32, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	fmt.Fprintf(file, "P3\n256 240\n255\n")
	for y := 0; y < 240; y++ {
		for x := 0; x < 256; x++ {
			pixel := frameBuffer[y*256+x]
			r := (pixel >> 16) & 0xFF
			g := (pixel >> 8) & 0xFF
			bl := pixel & 0xFF
			fmt.Fprintf(file, "%d %d %d ", r, g, bl)
		}
		fmt.Fprintln(file)
	}
	return nil
}

// logFrameBufferStats reports a quick distinct-color / non-black-pixel
// summary, useful for confirming a headless run actually rendered something.
func logFrameBufferStats(frameBuffer [256 * 240]uint32, frame int) {
	colorCounts := make(map[uint32]int)
	for _, pixel := range frameBuffer {
		colorCounts[pixel]++
	}

	nonBlack := 0
	for color, count := range colorCounts {
		if color != 0x000000 {
			nonBlack += count
		}
	}

	log.Printf("frame %d: %d distinct colors, %d non-black pixels (%.1f%%)",
		frame, len(colorCounts), nonBlack, float64(nonBlack)/float64(256*240)*100)
}

// setupGracefulShutdown exits cleanly on SIGINT/SIGTERM.
func setupGracefulShutdown() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Println("interrupt received, shutting down")
		os.Exit(0)
	}()
}

func enabledString(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

func printUsage() {
	fmt.Println("gones - Go NES Emulator")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  NROM/MMC1/CNROM NES core with an Ebitengine-backed host window.")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  gones [options]                    # Start GUI mode without ROM")
	fmt.Println("  gones -rom <file> [options]        # Start with ROM loaded")
	fmt.Println("  gones -nogui -rom <file> [options] # Run headless mode")
	fmt.Println()
	fmt.Println("OPTIONS:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  gones -rom game.nes                # Start with ROM loaded")
	fmt.Println("  gones -rom game.nes -debug         # Start with debug logging enabled")
	fmt.Println("  gones -config custom.json          # Use custom configuration")
	fmt.Println("  gones -nogui -rom test.nes          # Run headless for testing")
	fmt.Println()
	fmt.Println("CONTROLS (default):")
	fmt.Println("  Arrow Keys / WASD - D-Pad")
	fmt.Println("  J                 - A Button")
	fmt.Println("  K                 - B Button")
	fmt.Println("  Enter             - Start")
	fmt.Println("  Space             - Select")
	fmt.Println("  Escape            - Quit")
	fmt.Println()
	fmt.Println("CONFIGURATION:")
	fmt.Println("  Config file: ./config/gones.json")
	fmt.Println("  ROMs:        ./roms/")
	fmt.Println("  Screenshots: ./screenshots/")
	fmt.Println()
	fmt.Println("SUPPORTED MAPPERS:")
	fmt.Println("  NROM (0), MMC1 (1), CNROM (3)")
}
