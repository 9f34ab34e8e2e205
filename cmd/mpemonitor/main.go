// Package main is the entry point for the mpemonitor CLI
package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/james-see/mpemonitor/pkg/api"
	"github.com/james-see/mpemonitor/pkg/input"
	"github.com/james-see/mpemonitor/pkg/monitor"
	"github.com/james-see/mpemonitor/pkg/prefs"
	"github.com/james-see/mpemonitor/pkg/tui"
	"github.com/spf13/cobra"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	prefsPath  string
	logFile    string
	verbose    bool
	portName   string
	serverPort int
	noInput    bool

	bendFlag     string
	pressureFlag string
	yCCFlag      int
)

// logger is replaced by initLogger once flags are parsed
var logger = slog.Default()

// logOut is the open --log-file, if any
var logOut io.Closer

func main() {
	err := rootCmd.Execute()
	// post-run hooks are skipped when a command fails
	_ = closeLogger(nil, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mpemonitor",
	Short: "Monitor MIDI and MPE controllers",
	Long: `mpemonitor shows what an MPE controller sends: the last messages seen on
each of the 16 MIDI channels, and every sounding voice with its pitch bend,
pressure and third dimension.

Examples:
  mpemonitor ports
  mpemonitor tui --port linnstrument
  mpemonitor tui --bend 24 --pressure poly_pressure --y-cc 74
  mpemonitor serve --port seaboard --listen 8080
  mpemonitor decode 91 40 7f
  mpemonitor replay take.mid`,
	Version:            fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRunE:  initLogger,
	PersistentPostRunE: closeLogger,
	SilenceUsage:       true,
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI input ports",
	Args:  cobra.NoArgs,
	RunE:  runPorts,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the live terminal monitor",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var decodeCmd = &cobra.Command{
	Use:   "decode <hex bytes>",
	Short: "Decode one MIDI message given as hex bytes",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDecode,
}

var replayCmd = &cobra.Command{
	Use:   "replay <input.mid>",
	Short: "Feed a MIDI file through the monitor and print the final state",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplay,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&prefsPath, "prefs", "", "Preferences file (default ~/.config/mpemonitor/prefs.json)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	// Configuration overrides
	for _, cmd := range []*cobra.Command{tuiCmd, serveCmd, replayCmd} {
		cmd.Flags().StringVarP(&bendFlag, "bend", "b", "", "Pitch bend range: 2, 3, 12, 24, 48 or any 1-96")
		cmd.Flags().StringVar(&pressureFlag, "pressure", "", "Pressure source: channel_pressure, poly_pressure or cc11")
		cmd.Flags().IntVar(&yCCFlag, "y-cc", -1, "Third dimension controller number (0-127)")
	}

	// Input selection
	for _, cmd := range []*cobra.Command{tuiCmd, serveCmd} {
		cmd.Flags().StringVarP(&portName, "port", "p", "", "MIDI input: number or name (default first port)")
		cmd.Flags().BoolVar(&noInput, "no-input", false, "Do not open a MIDI input")
	}

	// serve command
	serveCmd.Flags().IntVarP(&serverPort, "listen", "l", 8080, "Server port")

	// Add commands
	rootCmd.AddCommand(portsCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(replayCmd)
}

// initLogger configures the shared slog logger. The TUI owns the terminal,
// so it only logs when a log file is given.
func initLogger(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	switch {
	case logFile != "":
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		w = f
		logOut = f
	case cmd == tuiCmd:
		w = io.Discard
	}

	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// closeLogger closes the log file opened by initLogger. It is safe to call
// more than once.
func closeLogger(cmd *cobra.Command, args []string) error {
	if logOut == nil {
		return nil
	}
	err := logOut.Close()
	logOut = nil
	logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)
	return err
}

func openPrefs() (*prefs.Store, error) {
	path := prefsPath
	if path == "" {
		var err error
		path, err = prefs.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return prefs.Open(path)
}

// loadConfig resolves the stored preferences, applies command line
// overrides and stores them when they changed anything
func loadConfig(store *prefs.Store) (monitor.Config, error) {
	cfg, err := store.Resolve()
	if err != nil {
		logger.Warn("ignoring invalid preferences", "err", err)
	}

	v := prefs.ValuesFor(cfg)
	changed := false
	if bendFlag != "" {
		v.BendSelect, v.BendCustom = bendSelection(bendFlag)
		changed = true
	}
	if pressureFlag != "" {
		v.PressureSource = pressureFlag
		changed = true
	}
	if yCCFlag >= 0 {
		v.ThirdDimensionCC = yCCFlag
		changed = true
	}
	if !changed {
		return cfg, nil
	}

	cfg, err = store.Record(v)
	if err != nil {
		return cfg, err
	}
	if err := store.Save(); err != nil {
		logger.Warn("could not save preferences", "err", err)
	}
	return cfg, nil
}

func bendSelection(flag string) (sel, custom string) {
	for _, p := range monitor.BendPresets {
		if strconv.Itoa(p) == flag {
			return flag, ""
		}
	}
	return prefs.BendCustom, flag
}

// setup builds the monitor and, unless disabled, starts listening to the
// selected input
func setup() (*monitor.Monitor, *prefs.Store, *input.Listener, error) {
	store, err := openPrefs()
	if err != nil {
		return nil, nil, nil, err
	}
	cfg, err := loadConfig(store)
	if err != nil {
		return nil, nil, nil, err
	}

	mon := monitor.New(cfg, monitor.WithLogger(logger))
	if noInput {
		return mon, store, nil, nil
	}

	l, err := input.Listen(portName, mon, logger)
	if err != nil {
		input.CloseDriver()
		return nil, nil, nil, err
	}
	return mon, store, l, nil
}

func runPorts(cmd *cobra.Command, args []string) error {
	defer input.CloseDriver()

	ports := input.Ports()
	if len(ports) == 0 {
		return input.ErrNoPorts
	}
	for _, p := range ports {
		fmt.Printf("%3d  %s\n", p.Number, p.Name)
	}
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	mon, store, l, err := setup()
	if err != nil {
		return err
	}
	defer input.CloseDriver()

	source := ""
	if l != nil {
		defer func() { _ = l.Close() }()
		source = l.Port().Name
	}
	return tui.Run(mon, store, source)
}

func runServe(cmd *cobra.Command, args []string) error {
	mon, store, l, err := setup()
	if err != nil {
		return err
	}
	defer input.CloseDriver()

	if l != nil {
		defer func() { _ = l.Close() }()
		fmt.Printf("Listening to %s\n", l.Port().Name)
	}

	errc := make(chan error, 1)
	go func() {
		errc <- api.New(mon, store, logger).Start(serverPort)
	}()
	fmt.Printf("Starting API server on port %d...\n", serverPort)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errc:
		return err
	case s := <-sig:
		logger.Info("shutting down", "signal", s.String())
		return nil
	}
}

func parseHexBytes(args []string) ([]byte, error) {
	joined := strings.Join(args, "")
	joined = strings.ReplaceAll(joined, "0x", "")
	joined = strings.ReplaceAll(joined, ",", "")
	data, err := hex.DecodeString(joined)
	if err != nil {
		return nil, fmt.Errorf("invalid hex bytes %q: %w", strings.Join(args, " "), err)
	}
	if len(data) == 0 || len(data) > 3 {
		return nil, errors.New("a MIDI message has 1 to 3 bytes")
	}
	return data, nil
}

func runDecode(cmd *cobra.Command, args []string) error {
	data, err := parseHexBytes(args)
	if err != nil {
		return err
	}
	if data[0] == monitor.TimingClock {
		fmt.Println("timing clock (ignored)")
		return nil
	}

	ev := monitor.Decode(data)
	if ev.Kind != monitor.KindUnknown && !monitor.Complete(data) {
		fmt.Printf("%s (incomplete, ignored)\n", ev.String())
		return nil
	}
	fmt.Println(ev.String())
	if ev.Kind == monitor.KindPitchBend {
		fmt.Printf("  %+.2f semitones at +/- %d\n", monitor.ToSemitones(ev.Bend, monitor.DefaultBendRange), monitor.DefaultBendRange)
	}
	return nil
}

func runReplay(cmd *cobra.Command, args []string) error {
	store, err := openPrefs()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(store)
	if err != nil {
		return err
	}

	mon := monitor.New(cfg, monitor.WithLogger(logger))
	n, err := input.ReplayFile(args[0], mon)
	if err != nil {
		return err
	}

	fmt.Printf("Replayed %d messages from %s\n\n", n, args[0])
	printSnapshot(os.Stdout, mon.Snapshot())
	return nil
}

func printSnapshot(w io.Writer, s *monitor.Snapshot) {
	fmt.Fprintln(w, "ch  note on   bend   cc        press  held")
	for i, ch := range s.Channels {
		held := make([]string, 0, ch.HeldNotes.Len())
		for _, n := range ch.HeldNotes.Notes() {
			held = append(held, monitor.NoteName(int(n)))
		}
		fmt.Fprintf(w, "%-3d %-9s %-6s %-9s %-6d %s\n",
			i+1, noteField(ch.LastNoteOn), optionalField(ch.LastBend), ccField(ch), ch.ChannelPressure, strings.Join(held, " "))
	}

	fmt.Fprintf(w, "\nvoices (bend +/- %d, pressure %s, 3rd dim. CC %d)\n",
		s.Config.BendRange, s.Config.PressureSource.Label(), s.Config.ThirdDimensionCC)
	if len(s.Voices) == 0 {
		fmt.Fprintln(w, "  none")
		return
	}
	for _, v := range s.Voices {
		fmt.Fprintf(w, "  %-9s bend %+6.1f -> %-9s z %3d  y %3d\n",
			noteField(int(v.Note)),
			monitor.ToSemitones(v.Bend, s.Config.BendRange),
			noteField(monitor.BentNote(v.Note, v.Bend, s.Config.BendRange)),
			v.Z, v.Y)
	}
}

func noteField(note int) string {
	if note < 0 {
		return ""
	}
	return fmt.Sprintf("%s %d", monitor.NoteName(note), note)
}

func optionalField(v int) string {
	if v == monitor.None {
		return ""
	}
	return strconv.Itoa(v)
}

func ccField(ch monitor.ChannelRecord) string {
	if ch.LastCCNumber == monitor.None {
		return ""
	}
	return fmt.Sprintf("%d:%d", ch.LastCCNumber, ch.LastCCValue)
}
