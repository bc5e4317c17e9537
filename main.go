// Command elementary-l10n shows the translation status of elementary OS components on Weblate.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/minios-linux/elementary-l10n/cache"
	"github.com/minios-linux/elementary-l10n/config"
	"github.com/minios-linux/elementary-l10n/export"
	"github.com/minios-linux/elementary-l10n/i18n"
	"github.com/minios-linux/elementary-l10n/langmeta"
	"github.com/minios-linux/elementary-l10n/report"
	"github.com/minios-linux/elementary-l10n/settings"
	"github.com/minios-linux/elementary-l10n/weblate"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors, cleared by setColors(false)
var (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
	colorBlack  = "\033[30m"

	useColor = true
)

func setColors(enabled bool) {
	useColor = enabled
	if enabled {
		colorReset, colorRed, colorGreen = "\033[0m", "\033[0;31m", "\033[0;32m"
		colorYellow, colorBlue, colorBlack = "\033[1;33m", "\033[0;34m", "\033[30m"
		return
	}
	colorReset, colorRed, colorGreen, colorYellow, colorBlue, colorBlack = "", "", "", "", "", ""
}

// initColors turns colours off for NO_COLOR or when stderr is not a terminal.
func initColors() {
	setColors(os.Getenv("NO_COLOR") == "" && term.IsTerminal(int(os.Stderr.Fd())))
}

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	configPath string
	verbose    bool

	// appConfig is loaded before every command runs.
	appConfig = config.Default()
)

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "elementary-l10n",
		Short: "Translation status of elementary OS on Weblate",
		Long: `elementary-l10n — translation status of elementary OS components.

Reads per-language translation statistics from the elementary OS Weblate
instance (l10n.elementaryos.org) and shows them as a heatmap grid or a list.
Results are cached for an hour; requests back off when Weblate rate-limits.

Commands:
  status      Show translation status for a language
  export      Write translation status to CSV, JSON or YAML
  auth        Manage the Weblate API key
  languages   List language codes
  cache       Inspect or clear the local cache`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			i18n.Init("")
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			appConfig = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to elementary-l10n.yaml (default: $XDG_CONFIG_HOME/elementary-l10n/elementary-l10n.yaml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every API request")

	root.AddCommand(
		newStatusCmd(),
		newExportCmd(),
		newAuthCmd(),
		newLanguagesCmd(),
		newCacheCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	initColors()
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "elementary-l10n version %s\n", version)
			fmt.Fprintf(out, "  commit:    %s\n", commit)
			fmt.Fprintf(out, "  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// Fetching
// ---------------------------------------------------------------------------

type fetchFlags struct {
	lang    string
	refresh bool
	wait    bool
	apiKey  string
}

func (ff *fetchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&ff.lang, "lang", "l", "", "Language code (default: config file, then system locale)")
	cmd.Flags().BoolVarP(&ff.refresh, "refresh", "r", false, "Ignore the cache and fetch from Weblate")
	cmd.Flags().StringVar(&ff.apiKey, "api-key", "", "Weblate API key (overrides "+settings.EnvAPIKey+" and the stored key)")
}

// snapshot is one set of rows ready to display.
type snapshot struct {
	lang       string
	rows       []weblate.Row
	cached     bool
	ageMinutes int
}

// newFetcher wires the stores and the tuning file into a Fetcher. A non-empty
// apiKey wins over the environment and the stored key.
func newFetcher(apiKey string) (*weblate.Fetcher, error) {
	store, err := settings.DefaultStore()
	if err != nil {
		return nil, err
	}
	cacheStore, err := cache.DefaultStore()
	if err != nil {
		return nil, err
	}

	opts := appConfig.ClientOptions()
	opts.APIKey = apiKey
	opts.UserAgent = "elementary-l10n/" + version
	if appConfig.UserAgent != weblate.DefaultUserAgent {
		opts.UserAgent = appConfig.UserAgent
	}
	if verbose {
		opts.OnLog = log.Printf
	}

	f := weblate.NewFetcher(store, cacheStore, opts)
	f.SetMaxCacheAge(appConfig.MaxCacheAge)
	return f, nil
}

// loadRows returns a recent cached snapshot when there is one, otherwise the
// result of a network fetch. With ff.wait a cached snapshot is passed to
// onCached and the network result is still awaited.
func loadRows(ctx context.Context, ff fetchFlags, onCached func(snapshot)) (snapshot, error) {
	lang, err := appConfig.ResolveLanguage(ff.lang)
	if err != nil {
		return snapshot{}, err
	}
	fetcher, err := newFetcher(ff.apiKey)
	if err != nil {
		return snapshot{}, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := fetcher.Fetch(ctx, lang, weblate.FetchOptions{Force: ff.refresh})
	announced := false
	for {
		var r weblate.Result
		var ok bool
		select {
		case r, ok = <-results:
		default:
			if !announced {
				logInfo(i18n.T("Fetching translation status for %s from %s..."), langmeta.Name(lang), appConfig.BaseURL)
				announced = true
			}
			r, ok = <-results
		}
		if !ok {
			return snapshot{}, errors.New("fetch ended without a result")
		}

		switch r.Kind {
		case weblate.KindCached:
			snap := snapshot{lang: lang, rows: r.Rows, cached: true, ageMinutes: r.AgeMinutes}
			if !ff.wait || onCached == nil {
				// Stop the network fetch and wait for it to wind down.
				cancel()
				for range results {
				}
				return snap, nil
			}
			onCached(snap)
		case weblate.KindFresh:
			return snapshot{lang: lang, rows: r.Rows}, nil
		case weblate.KindFailed:
			return snapshot{lang: lang}, r.Err
		}
	}
}

// ---------------------------------------------------------------------------
// status
// ---------------------------------------------------------------------------

// viewMode selects the status layout.
type viewMode string

const (
	viewGrid viewMode = "grid"
	viewList viewMode = "list"
)

func (v *viewMode) String() string { return string(*v) }

func (v *viewMode) Set(s string) error {
	switch viewMode(s) {
	case viewGrid, viewList:
		*v = viewMode(s)
		return nil
	}
	return fmt.Errorf("must be one of grid, list")
}

func (v *viewMode) Type() string { return "view" }

type statusOptions struct {
	filter report.Filter
	order  report.Order
	view   viewMode
	urls   bool
	width  int
}

func newStatusCmd() *cobra.Command {
	var ff fetchFlags
	so := statusOptions{filter: report.FilterAll, order: report.Ascending, view: viewGrid}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show translation status for a language",
		Long: `Show the translation status of every component for one language.

Cached data younger than the cache age (1h by default) is shown without
contacting Weblate. Use --refresh to fetch fresh data, or --wait to show the
cached data and then the fresh data once it arrives.

Examples:
  elementary-l10n status                       System language, heatmap grid
  elementary-l10n status -l de --view list     German, as a list
  elementary-l10n status --filter partial      Only started translations
  elementary-l10n status --sort desc -r        Best first, fresh data`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			so.width = terminalWidth()
			out := cmd.OutOrStdout()
			show := func(s snapshot) { renderStatus(out, s, so, appConfig.LowThreshold) }

			snap, err := loadRows(ctx, ff, show)
			if err != nil {
				return fmt.Errorf("%s: %w", i18n.T("Failed to load data"), err)
			}
			show(snap)
			return nil
		},
	}

	ff.register(cmd)
	cmd.Flags().BoolVarP(&ff.wait, "wait", "w", false, "After showing cached data, wait for fresh data")
	cmd.Flags().Var(&so.filter, "filter", "Show only: all, complete, partial, untranslated")
	cmd.Flags().Var(&so.order, "sort", "Sort by percentage: asc, desc")
	cmd.Flags().Var(&so.view, "view", "Layout: grid, list")
	cmd.Flags().BoolVar(&so.urls, "urls", false, "Print translate URLs in list view")

	return cmd
}

func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

func renderStatus(w io.Writer, snap snapshot, so statusOptions, lowThreshold float64) {
	fmt.Fprintf(w, "\n%s%s (%s)%s\n", colorBlue, langmeta.Name(snap.lang), snap.lang, colorReset)
	fmt.Fprintln(w, strings.Repeat("─", 60))

	rows := report.Sort(report.Apply(snap.rows, so.filter), so.order)
	if len(rows) == 0 {
		fmt.Fprintln(w, i18n.T("No components found."))
		return
	}

	fmt.Fprintln(w, report.Summarize(rows).Line(snap.cached, snap.ageMinutes))
	fmt.Fprintln(w)

	switch so.view {
	case viewList:
		renderList(w, rows, so.urls)
	default:
		renderGrid(w, rows, so.width)
	}
	fmt.Fprintln(w)

	if low := report.LowCoverage(snap.rows, lowThreshold); len(low) > 0 {
		logWarning("%s", report.LowNotice(len(low), lowThreshold))
	}
}

// progressBar draws a heat-coloured bar followed by the percentage.
func progressBar(pct float64, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	bar := report.Bar(pct, width)
	if useColor {
		bar = report.HeatColor(pct).ANSIForeground() + bar + colorReset
	}
	return fmt.Sprintf("%s %5.1f%%", bar, pct)
}

func renderList(w io.Writer, rows []weblate.Row, urls bool) {
	for _, r := range rows {
		fmt.Fprintf(w, "  %s  %s / %s\n", progressBar(r.TranslatedPercent, 20), r.Project, r.Component)
		if urls {
			fmt.Fprintf(w, "  %s\n", r.TranslateURL)
		}
	}
}

const (
	tileWidth  = 28
	labelWidth = tileWidth - 7
)

// tile renders one grid cell: the label and the percentage on a heat
// coloured background, or in brackets without colours.
func tile(r weblate.Row) string {
	label := truncateRunes(r.Project+" / "+r.Component, labelWidth)
	text := fmt.Sprintf("%-*s %3.0f%%", labelWidth, label, r.TranslatedPercent)
	if !useColor {
		return "[" + text + "]"
	}
	return colorBlack + report.HeatColor(r.TranslatedPercent).ANSIBackground() + " " + text + " " + colorReset
}

func renderGrid(w io.Writer, rows []weblate.Row, width int) {
	cols := (width + 1) / (tileWidth + 1)
	if cols < 1 {
		cols = 1
	}
	for i, r := range rows {
		fmt.Fprint(w, tile(r))
		if (i+1)%cols == 0 || i == len(rows)-1 {
			fmt.Fprintln(w)
		} else {
			fmt.Fprint(w, " ")
		}
	}
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "…"
}

// ---------------------------------------------------------------------------
// export
// ---------------------------------------------------------------------------

func newExportCmd() *cobra.Command {
	var ff fetchFlags
	var format export.Format
	var output string
	filter := report.FilterAll
	var order report.Order

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write translation status to CSV, JSON or YAML",
		Long: `Write one record per component (project, component, translated_percent,
translate_url) to a file.

The format defaults to the output file's extension, then CSV. The output
defaults to translation-status.<format>; use -o - for standard output.

Examples:
  elementary-l10n export                         translation-status.csv
  elementary-l10n export -l pt_BR -o status.json
  elementary-l10n export --format yaml -o -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				if f, ok := export.FormatFromPath(output); ok {
					format = f
				} else {
					format = export.FormatCSV
				}
			}
			if output == "" {
				output = export.DefaultFileName(format)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			snap, err := loadRows(ctx, ff, nil)
			if err != nil {
				return fmt.Errorf("%s: %w", i18n.T("Failed to load data"), err)
			}
			rows := report.Apply(snap.rows, filter)
			if order != "" {
				rows = report.Sort(rows, order)
			}

			if output == "-" {
				return export.Write(cmd.OutOrStdout(), format, rows)
			}
			if err := export.WriteFile(output, format, rows); err != nil {
				return err
			}
			logSuccess(i18n.T("Exported %d components to %s"), len(rows), output)
			return nil
		},
	}

	ff.register(cmd)
	cmd.Flags().VarP(&format, "format", "f", "Output format: csv, json, yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, - for stdout")
	cmd.Flags().Var(&filter, "filter", "Export only: all, complete, partial, untranslated")
	cmd.Flags().Var(&order, "sort", "Sort by percentage: asc, desc (default: Weblate order)")

	return cmd
}

// ---------------------------------------------------------------------------
// auth
// ---------------------------------------------------------------------------

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the Weblate API key",
		Long: `Manage the Weblate API key.

Anonymous access works but is rate-limited more aggressively. With a key,
requests are sent with "Authorization: Token <key>".

Precedence: --api-key flag, then ` + settings.EnvAPIKey + `, then the stored key.

Examples:
  elementary-l10n auth login              Prompt for the key
  elementary-l10n auth login --key wlu_…  Store a key non-interactively
  elementary-l10n auth logout             Remove the stored key
  elementary-l10n auth status             Show where the key comes from`,
	}

	cmd.AddCommand(
		newAuthLoginCmd(),
		newAuthLogoutCmd(),
		newAuthStatusCmd(),
	)

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store a Weblate API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := settings.DefaultStore()
			if err != nil {
				return err
			}

			if key == "" {
				existing := store.Load().APIKey
				fmt.Fprintf(os.Stderr, "\n%sWeblate API Key Setup%s\n", colorBlue, colorReset)
				fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
				fmt.Fprintf(os.Stderr, "  %s\n", i18n.T("Log in (or create an account), then copy your API key from:"))
				fmt.Fprintf(os.Stderr, "  %s%s/accounts/profile/#api%s\n\n", colorGreen, strings.TrimRight(appConfig.BaseURL, "/"), colorReset)
				if existing != "" {
					fmt.Fprintf(os.Stderr, "  Current key: %s%s%s\n", colorYellow, settings.MaskKey(existing), colorReset)
				}
				fmt.Fprintf(os.Stderr, "  %s", i18n.T("Enter API key: "))

				key, err = readSecret(cmd.InOrStdin())
				if err != nil {
					return err
				}
				if key == "" && existing != "" {
					logInfo("%s", i18n.T("Keeping existing key"))
					return nil
				}
			}

			if key == "" {
				return errors.New(i18n.T("no API key provided"))
			}
			if err := store.SetAPIKey(key); err != nil {
				return fmt.Errorf("saving API key: %w", err)
			}
			logSuccess(i18n.T("API key saved to %s"), store.Path())
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "API key to store (prompted for when omitted)")

	return cmd
}

// readSecret reads one line, without echo when in is a terminal.
func readSecret(in io.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading key: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("reading key: %w", err)
		}
		return "", nil
	}
	return strings.TrimSpace(scanner.Text()), nil
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := settings.DefaultStore()
			if err != nil {
				return err
			}
			if store.Load().APIKey == "" {
				logInfo("%s", i18n.T("No API key stored"))
				return nil
			}
			if err := store.RemoveAPIKey(); err != nil {
				return fmt.Errorf("removing API key: %w", err)
			}
			logSuccess("%s", i18n.T("API key removed"))
			return nil
		},
	}
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the configured API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := settings.DefaultStore()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			stored := store.Load().APIKey

			fmt.Fprintf(out, "%sWeblate%s  %s\n", colorBlue, colorReset, appConfig.BaseURL)
			fmt.Fprintf(out, "  Config file: %s\n", store.Path())
			if stored != "" {
				fmt.Fprintf(out, "  Stored key:  %sconfigured%s (key: %s)\n", colorGreen, colorReset, settings.MaskKey(stored))
			} else {
				fmt.Fprintf(out, "  Stored key:  %snot configured%s\n", colorRed, colorReset)
			}
			if env := os.Getenv(settings.EnvAPIKey); env != "" {
				fmt.Fprintf(out, "  %s: %s%s%s (overrides stored key)\n", settings.EnvAPIKey, colorGreen, settings.MaskKey(env), colorReset)
			} else {
				fmt.Fprintf(out, "  %s: not set\n", settings.EnvAPIKey)
			}
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// languages
// ---------------------------------------------------------------------------

func newLanguagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List language codes",
		Long:  `List the Weblate language codes accepted by --lang. The system language is marked with *.`,
		Run: func(cmd *cobra.Command, args []string) {
			renderLanguages(cmd.OutOrStdout(), langmeta.Detect())
		},
	}
}

func renderLanguages(w io.Writer, current string) {
	for _, l := range langmeta.Languages {
		mark := " "
		if l.Code == current {
			mark = "*"
		}
		name := l.Name
		if native := langmeta.NativeName(l.Code); native != "" && !strings.EqualFold(native, l.Name) {
			name += " — " + native
		}
		flag := langmeta.Flag(l.Code)
		if flag == "" {
			flag = "  "
		}
		fmt.Fprintf(w, "%s %-6s %s %s\n", mark, l.Code, flag, name)
	}
}

// ---------------------------------------------------------------------------
// cache
// ---------------------------------------------------------------------------

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the local cache",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show what the cache holds",
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := cache.DefaultStore()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n  %s\n", store.Path(), store.Summary())
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Delete the cache file",
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := cache.DefaultStore()
				if err != nil {
					return err
				}
				if err := store.Clear(); err != nil {
					return err
				}
				logSuccess("%s", i18n.T("Cache cleared"))
				return nil
			},
		},
	)

	return cmd
}
