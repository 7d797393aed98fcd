// Command wheyout drives the calorie glyph and manages the nutrition log
// behind it.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/bituwy/wheyout/internal/config"
	"github.com/bituwy/wheyout/internal/matrix"
	"github.com/bituwy/wheyout/internal/timeutil"
)

var (
	configPath = flag.String("config", config.DefaultConfigPath, "Path to a JSON or YAML config file")
	dbPath     = flag.String("db", "", "Database path (overrides db_path from the config)")
	devMode    = flag.Bool("dev", false, "Run with demo data on the terminal")
)

func main() {
	flag.Usage = func() { printUsage(os.Stderr) }
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	a := &app{
		cfg:    cfg,
		dbPath: cfg.GetDBPath(),
		dev:    *devMode,
		clock:  timeutil.RealClock{},
		open:   matrix.OpenSerialPort,
		stdout: os.Stdout,
		redraw: isTerminal(os.Stdout),
	}
	if *dbPath != "" {
		a.dbPath = *dbPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd, args := "run", flag.Args()
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}
	if err := a.dispatch(ctx, cmd, args); err != nil {
		stop()
		log.Fatalf("%s: %v", cmd, err)
	}
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: wheyout [flags] [command] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  run             Drive the calorie glyph (default)")
	fmt.Fprintln(w, "  log             Record a nutrition entry (-kcal, -protein, -carbs, -fat, -at)")
	fmt.Fprintln(w, "  grant <p>...    Grant permissions by name, or 'all'")
	fmt.Fprintln(w, "  revoke <p>...   Revoke permissions by name, or 'all'")
	fmt.Fprintln(w, "  summary         Print the current budget (-json)")
	fmt.Fprintln(w, "  history         Summarize recent days (-days, -html, -png)")
	fmt.Fprintln(w, "  migrate         Manage the database schema (see 'migrate help')")
	fmt.Fprintln(w, "  version         Print build information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	flag.CommandLine.SetOutput(w)
	flag.PrintDefaults()
}
