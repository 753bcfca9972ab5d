package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	json "github.com/goccy/go-json"
	"golang.org/x/term"
)

// ExportWizardConfig holds the answers collected by the export wizard. It is
// persisted so a second export can reuse the previous settings.
type ExportWizardConfig struct {
	Format    string `json:"format"`
	OutputDir string `json:"output_dir"`
	Title     string `json:"title,omitempty"`
	Query     string `json:"query,omitempty"`
}

// ExportWizard walks the user through a snapshot export on the command line.
type ExportWizard struct {
	cfg      *ExportWizardConfig
	isUpdate bool
}

// NewExportWizard creates a wizard with defaults.
func NewExportWizard() *ExportWizard {
	return &ExportWizard{
		cfg: &ExportWizardConfig{
			Format:    "png",
			OutputDir: ".",
		},
	}
}

// isTerminal checks if stdin is connected to a terminal
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newForm creates a form with appropriate settings based on TTY detection
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !isTerminal() {
		form = form.WithAccessible(true)
	}
	return form
}

// Run executes the wizard and returns the snapshot options plus the search
// query to decorate the outline with ("" for a plain export).
func (w *ExportWizard) Run() (SnapshotOptions, string, error) {
	saved, err := LoadExportWizardConfig()
	if err == nil && saved != nil && saved.Format != "" {
		useSaved, err := w.offerSavedConfig(saved)
		if err != nil {
			return SnapshotOptions{}, "", err
		}
		if useSaved {
			w.cfg = saved
			w.isUpdate = true
			return w.options(), w.cfg.Query, nil
		}
	}

	if err := w.collect(); err != nil {
		return SnapshotOptions{}, "", err
	}

	if err := SaveExportWizardConfig(w.cfg); err != nil {
		// Not fatal; the export itself still runs.
		fmt.Fprintf(os.Stderr, "warning: could not save export settings: %v\n", err)
	}

	return w.options(), w.cfg.Query, nil
}

func (w *ExportWizard) options() SnapshotOptions {
	return SnapshotOptions{
		Format: w.cfg.Format,
		Dir:    w.cfg.OutputDir,
		Title:  w.cfg.Title,
	}
}

func (w *ExportWizard) offerSavedConfig(saved *ExportWizardConfig) (bool, error) {
	fmt.Println("Found previous export configuration:")
	fmt.Println("────────────────────────────────────")
	fmt.Printf("  Format:    %s\n", saved.Format)
	fmt.Printf("  Directory: %s\n", saved.OutputDir)
	if saved.Title != "" {
		fmt.Printf("  Title:     %s\n", saved.Title)
	}
	if saved.Query != "" {
		fmt.Printf("  Query:     %q\n", saved.Query)
	}
	fmt.Println("")

	useSaved := true
	form := newForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Export again with these settings?").
				Description("Select No to reconfigure").
				Value(&useSaved).
				Affirmative("Yes, export").
				Negative("No, reconfigure"),
		),
	)

	if err := form.Run(); err != nil {
		return false, err
	}

	fmt.Println("")
	return useSaved, nil
}

func (w *ExportWizard) collect() error {
	fmt.Println("Outline Snapshot Export")
	fmt.Println("────────────────────────────────────")

	outputDir := w.cfg.OutputDir
	title := w.cfg.Title
	query := w.cfg.Query

	form := newForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Image format").
				Options(
					huh.NewOption("PNG (raster)", "png"),
					huh.NewOption("SVG (vector)", "svg"),
				).
				Value(&w.cfg.Format),
			huh.NewInput().
				Title("Output directory").
				Value(&outputDir).
				Placeholder("."),
			huh.NewInput().
				Title("Image title (optional)").
				Value(&title).
				Placeholder("defaults to the outline root"),
			huh.NewInput().
				Title("Search query (optional)").
				Description("When set, matched spans and counts are painted into the image").
				Value(&query),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	if strings.TrimSpace(outputDir) == "" {
		outputDir = "."
	}
	w.cfg.OutputDir = outputDir
	w.cfg.Title = strings.TrimSpace(title)
	w.cfg.Query = strings.TrimSpace(query)

	fmt.Println("")
	return nil
}

// ExportWizardConfigPath returns the path to the saved wizard settings.
func ExportWizardConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "canopy", "export-wizard.json")
}

// LoadExportWizardConfig loads previously saved wizard settings. A missing
// file is not an error; it returns (nil, nil).
func LoadExportWizardConfig() (*ExportWizardConfig, error) {
	path := ExportWizardConfigPath()
	if path == "" {
		return nil, fmt.Errorf("could not determine config path")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var cfg ExportWizardConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveExportWizardConfig saves wizard settings for future runs.
func SaveExportWizardConfig(cfg *ExportWizardConfig) error {
	path := ExportWizardConfigPath()
	if path == "" {
		return fmt.Errorf("could not determine config path")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
