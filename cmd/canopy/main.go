package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/vanderheijden86/canopy/internal/datasource"
	"github.com/vanderheijden86/canopy/pkg/config"
	"github.com/vanderheijden86/canopy/pkg/export"
	"github.com/vanderheijden86/canopy/pkg/model"
	"github.com/vanderheijden86/canopy/pkg/treesearch"
	"github.com/vanderheijden86/canopy/pkg/ui"
	"github.com/vanderheijden86/canopy/pkg/version"
)

func main() {
	cpuProfile := flag.String("cpu-profile", "", "Write CPU profile to file")
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	rootLabel := flag.String("root", "Outline", "Root label used when the source has several top-level rows")
	findQuery := flag.String("find", "", "Run a headless search and print a JSON match report")
	modeFlag := flag.String("mode", "", "Search mode: highlight or filter (with --find, or as the TUI default)")
	exportImage := flag.Bool("export-image", false, "Write a PNG/SVG snapshot of the outline and exit")
	exportOut := flag.String("export-out", "", "Snapshot path for --export-image; skips the wizard, the extension picks the format")
	flag.Parse()

	// CPU profiling support
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Could not start CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	if *help {
		fmt.Println("Usage: canopy [options] [workspace]")
		fmt.Println("\nA terminal outline viewer with live fuzzy search.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("canopy %s\n", version.Version)
		os.Exit(0)
	}

	workspace := flag.Arg(0)

	outline, records, source, err := datasource.LoadOutline(workspace, *rootLabel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading outline: %v\n", err)
		fmt.Fprintln(os.Stderr, "Put an outline.jsonl (or outline.db) in .canopy/, or pass the workspace directory.")
		os.Exit(1)
	}

	if *findQuery != "" {
		if err := runRobotFind(os.Stdout, outline, source, *findQuery, *modeFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
		os.Exit(0)
	}

	appCfg, cfgErr := config.Load()
	if cfgErr != nil {
		// Non-fatal: continue with defaults.
		appCfg = config.DefaultConfig()
	}
	if *modeFlag != "" {
		mode, err := parseSearchMode(*modeFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
		appCfg.Search.DefaultMode = mode.String()
	}

	if *exportImage {
		if err := runHeadlessExport(outline, appCfg, *exportOut); err != nil {
			fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Launch TUI
	m := ui.NewModel(outline, records, source).WithConfig(appCfg)
	defer m.Stop()

	final, err := runTUIProgram(m)
	if err != nil {
		fmt.Printf("Error running canopy: %v\n", err)
		os.Exit(1)
	}

	// Queries remembered during the session go back into the config file.
	if cfgErr == nil {
		if got := final.Config(); len(got.Search.SavedQueries) != len(appCfg.Search.SavedQueries) {
			_ = config.Save(got)
		}
	}
}

// runHeadlessExport writes one snapshot. With an explicit output path the
// export runs straight from config defaults; on a terminal without one, the
// wizard collects format, location and an optional search to decorate the
// image with.
func runHeadlessExport(outline *model.Outline, appCfg config.Config, outPath string) error {
	opts := export.SnapshotOptions{
		Format: appCfg.Export.Format,
		Dir:    appCfg.Export.OutputDir,
	}
	if outPath != "" {
		// The explicit path's extension decides the format.
		opts = export.SnapshotOptions{OutPath: outPath}
	}

	var ix *treesearch.Index
	if outPath == "" && term.IsTerminal(int(os.Stdin.Fd())) {
		wiz := export.NewExportWizard()
		wopts, query, err := wiz.Run()
		if err != nil {
			return err
		}
		opts = wopts
		if query != "" {
			ix = decorateOutline(outline, query, treesearch.ModeHighlight).Index()
		}
	}

	path, err := export.WriteTreeSnapshot(outline, ix, opts)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

func runTUIProgram(m ui.Model) (ui.Model, error) {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set CANOPY_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("CANOPY_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()

				select {
				case <-runDone:
					return
				case <-time.After(2 * time.Second):
				}

				p.Kill()
			}()
		}
	}

	out, err := p.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
			return m, nil
		}
		return m, err
	}
	if fm, ok := out.(ui.Model); ok {
		return fm, nil
	}
	return m, nil
}
