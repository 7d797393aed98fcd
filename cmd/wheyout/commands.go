package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bituwy/wheyout/internal/calories"
	"github.com/bituwy/wheyout/internal/config"
	"github.com/bituwy/wheyout/internal/db"
	"github.com/bituwy/wheyout/internal/matrix"
	"github.com/bituwy/wheyout/internal/monitoring"
	"github.com/bituwy/wheyout/internal/nutrition"
	"github.com/bituwy/wheyout/internal/render"
	"github.com/bituwy/wheyout/internal/report"
	"github.com/bituwy/wheyout/internal/timeutil"
	"github.com/bituwy/wheyout/internal/version"
)

var logf = monitoring.Logger("wheyout")

// app carries what the commands share, so tests can swap the clock, the
// serial opener and the output.
type app struct {
	cfg    *config.Config
	dbPath string
	dev    bool
	clock  timeutil.Clock
	open   matrix.Opener
	stdout io.Writer
	redraw bool
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "run":
		return a.run(ctx)
	case "log":
		return a.logEntry(ctx, args)
	case "grant":
		return a.setPermissions(ctx, args, true)
	case "revoke":
		return a.setPermissions(ctx, args, false)
	case "summary":
		return a.summary(ctx, args)
	case "history":
		return a.history(ctx, args)
	case "migrate":
		return db.RunMigrateCommand(args, a.dbPath, a.stdout)
	case "version":
		_, err := fmt.Fprintln(a.stdout, version.String())
		return err
	case "help":
		printUsage(a.stdout)
		return nil
	default:
		return fmt.Errorf("unknown command %q (try 'wheyout help')", cmd)
	}
}

// run drives the glyph until ctx is cancelled. SIGHUP and the configured
// refresh interval both trigger a re-fetch.
func (a *app) run(ctx context.Context) error {
	provider, closeProvider, err := a.provider()
	if err != nil {
		return err
	}
	defer closeProvider()

	tracker, err := nutrition.NewTracker(provider, a.cfg.GetCalorieTarget())
	if err != nil {
		return err
	}
	g, err := calories.New(tracker, calories.Options{
		Glyph:      a.cfg.GlyphConfig(),
		Window:     a.cfg.Window(),
		ShowMacros: a.cfg.GetShowMacros(),
		Clock:      a.clock,
	})
	if err != nil {
		return err
	}

	sink, closeSink, err := a.openSink()
	if err != nil {
		return err
	}
	defer closeSink()

	if err := g.Attach(sink); err != nil {
		return err
	}
	defer g.Detach()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	var refresh <-chan time.Time
	if d := a.cfg.GetRefreshInterval(); d > 0 {
		ticker := a.clock.NewTicker(d)
		defer ticker.Stop()
		refresh = ticker.C()
	}

	logf("glyph running (sink %s, target %d kcal)", a.sinkType(), int(tracker.Target()))
	for {
		select {
		case <-ctx.Done():
			logf("shutting down")
			return nil
		case <-hup:
			logf("SIGHUP: refreshing")
			g.Refresh()
		case <-refresh:
			g.Refresh()
		}
	}
}

// provider opens the nutrition source. A missing database is not fatal: the
// glyph shows that no health data is available and picks the database up on
// a later refresh once it exists.
func (a *app) provider() (nutrition.Provider, func(), error) {
	if a.dev {
		return nutrition.NewMemoryProvider(demoEntries(a.clock.Now())...), func() {}, nil
	}

	lazy := db.NewLazyProvider(a.dbPath)
	return lazy, func() { lazy.Close() }, nil
}

// demoEntries is a day's worth of meals ending just before now.
func demoEntries(now time.Time) []nutrition.Entry {
	return []nutrition.Entry{
		{ID: "demo-breakfast", Time: now.Add(-3 * time.Minute), EnergyKcal: nutrition.Float(450), ProteinGrams: nutrition.Float(25), CarbGrams: nutrition.Float(60), FatGrams: nutrition.Float(12)},
		{ID: "demo-lunch", Time: now.Add(-2 * time.Minute), EnergyKcal: nutrition.Float(700), ProteinGrams: nutrition.Float(45), CarbGrams: nutrition.Float(70), FatGrams: nutrition.Float(25)},
		{ID: "demo-snack", Time: now.Add(-time.Minute), EnergyKcal: nutrition.Float(250), ProteinGrams: nutrition.Float(20), CarbGrams: nutrition.Float(15), FatGrams: nutrition.Float(10)},
	}
}

func (a *app) sinkType() string {
	if a.dev {
		return config.SinkTerminal
	}
	return a.cfg.GetSink()
}

func (a *app) openSink() (render.Sink, func(), error) {
	switch a.sinkType() {
	case config.SinkSerial:
		s, err := matrix.OpenSerialSink(a.cfg.GetSerialPath(), a.cfg.GetSerial(), a.open)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case config.SinkOLED:
		s, err := matrix.OpenOLED(a.cfg.GetOLEDBus(), a.cfg.GlyphConfig().ScreenSize)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	default:
		return matrix.NewTerminalSink(a.stdout, a.redraw), func() {}, nil
	}
}

func (a *app) logEntry(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("log", flag.ContinueOnError)
	fs.SetOutput(a.stdout)
	kcal := fs.Float64("kcal", 0, "Energy in kilocalories")
	protein := fs.Float64("protein", 0, "Protein in grams")
	carbs := fs.Float64("carbs", 0, "Carbohydrates in grams")
	fat := fs.Float64("fat", 0, "Fat in grams")
	at := fs.String("at", "", "When the entry was eaten, RFC3339 (default now)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	e := nutrition.Entry{Time: a.clock.Now()}
	if *at != "" {
		t, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			return fmt.Errorf("invalid -at time: %w", err)
		}
		e.Time = t
	}
	// Only flags given on the command line are recorded; the rest stay nil.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "kcal":
			e.EnergyKcal = nutrition.Float(*kcal)
		case "protein":
			e.ProteinGrams = nutrition.Float(*protein)
		case "carbs":
			e.CarbGrams = nutrition.Float(*carbs)
		case "fat":
			e.FatGrams = nutrition.Float(*fat)
		}
	})
	if e.EnergyKcal == nil && e.ProteinGrams == nil && e.CarbGrams == nil && e.FatGrams == nil {
		return errors.New("nothing to log: set at least one of -kcal, -protein, -carbs or -fat")
	}

	database, err := db.NewDB(a.dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	saved, err := database.RecordEntry(ctx, e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.stdout, "Logged %s at %s\n", saved.ID, saved.Time.Format(time.RFC3339))
	return err
}

func (a *app) setPermissions(ctx context.Context, args []string, grant bool) error {
	if len(args) == 0 {
		return errors.New("name at least one permission, or 'all'")
	}
	var perms []nutrition.Permission
	for _, arg := range args {
		if strings.EqualFold(arg, "all") {
			perms = append(perms, nutrition.RequiredPermissions...)
			continue
		}
		p, err := nutrition.ParsePermission(arg)
		if err != nil {
			return err
		}
		perms = append(perms, p)
	}

	database, err := db.NewDB(a.dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	if grant {
		err = database.GrantPermission(ctx, perms...)
	} else {
		err = database.RevokePermission(ctx, perms...)
	}
	if err != nil {
		return err
	}

	granted, err := database.GrantedPermissions(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Granted: %s\n", joinPermissions(granted))
	if missing := nutrition.MissingPermissions(granted); len(missing) > 0 {
		fmt.Fprintf(a.stdout, "Missing: %s\n", joinPermissions(missing))
	}
	return nil
}

func joinPermissions(perms []nutrition.Permission) string {
	if len(perms) == 0 {
		return "none"
	}
	names := make([]string, len(perms))
	for i, p := range perms {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

// tracker opens the provider for the one-shot commands. Unlike run they
// fail when the database is missing.
func (a *app) tracker() (*nutrition.Tracker, func(), error) {
	var provider nutrition.Provider
	closeProvider := func() {}
	if a.dev {
		provider = nutrition.NewMemoryProvider(demoEntries(a.clock.Now())...)
	} else {
		database, err := db.OpenExisting(a.dbPath)
		if err != nil {
			return nil, nil, err
		}
		provider = database
		closeProvider = func() { database.Close() }
	}

	tracker, err := nutrition.NewTracker(provider, a.cfg.GetCalorieTarget())
	if err != nil {
		closeProvider()
		return nil, nil, err
	}
	return tracker, closeProvider, nil
}

func (a *app) summary(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	fs.SetOutput(a.stdout)
	asJSON := fs.Bool("json", false, "Print the summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tracker, closeProvider, err := a.tracker()
	if err != nil {
		return err
	}
	defer closeProvider()

	s, err := tracker.Fetch(ctx, a.cfg.Window()(a.clock.Now()))
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}
	fmt.Fprintln(a.stdout, nutrition.FormatSummary(s))
	_, err = fmt.Fprintf(a.stdout, "consumed %d of %d kcal (%d%%)\n",
		int(s.Consumed), int(s.Target), int(s.Percent*100))
	return err
}

func (a *app) history(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(a.stdout)
	days := fs.Int("days", 7, "Number of days, today included")
	htmlPath := fs.String("html", "", "Also write an HTML bar chart to this path")
	pngPath := fs.String("png", "", "Also write a PNG plot to this path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tracker, closeProvider, err := a.tracker()
	if err != nil {
		return err
	}
	defer closeProvider()

	h, err := report.Build(ctx, tracker, a.clock.Now(), *days, a.cfg.GetDayStartHour())
	if err != nil {
		return err
	}
	if err := report.WriteText(a.stdout, h); err != nil {
		return err
	}

	if *htmlPath != "" {
		f, err := os.Create(*htmlPath)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", *htmlPath, err)
		}
		if err := report.WriteHTML(f, h); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "Wrote %s\n", *htmlPath)
	}
	if *pngPath != "" {
		if err := report.SavePNG(*pngPath, h); err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "Wrote %s\n", *pngPath)
	}
	return nil
}
