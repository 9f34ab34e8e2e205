// Package main is the entry point for the mpemonitor API server
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/james-see/mpemonitor/pkg/api"
	"github.com/james-see/mpemonitor/pkg/input"
	"github.com/james-see/mpemonitor/pkg/monitor"
	"github.com/james-see/mpemonitor/pkg/prefs"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

func main() {
	port := flag.Int("port", 8080, "Server port")
	in := flag.String("input", "", "MIDI input number or name (default first port)")
	noInput := flag.Bool("no-input", false, "Only accept messages posted to the API")
	prefsPath := flag.String("prefs", "", "Preferences file (default ~/.config/mpemonitor/prefs.json)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := run(*port, *in, *noInput, *prefsPath, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

func run(port int, in string, noInput bool, prefsPath string, logger *slog.Logger) error {
	if prefsPath == "" {
		var err error
		if prefsPath, err = prefs.DefaultPath(); err != nil {
			return err
		}
	}
	store, err := prefs.Open(prefsPath)
	if err != nil {
		return err
	}
	cfg, err := store.Resolve()
	if err != nil {
		logger.Warn("ignoring invalid preferences", "err", err)
	}

	mon := monitor.New(cfg, monitor.WithLogger(logger))
	defer input.CloseDriver()

	if !noInput {
		l, err := input.Listen(in, mon, logger)
		if err != nil {
			return err
		}
		defer func() { _ = l.Close() }()
		fmt.Printf("Listening to %s\n", l.Port().Name)
	}

	fmt.Printf("Starting mpemonitor API server on port %d...\n", port)
	fmt.Printf("Swagger docs available at http://localhost:%d/swagger/index.html\n", port)
	return api.New(mon, store, logger).Start(port)
}
