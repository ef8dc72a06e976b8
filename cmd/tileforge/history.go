package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tileforge/internal/platform/tui"
	"github.com/vovakirdan/tileforge/internal/storage"
)

var (
	flagPlain bool
	flagLimit int
	flagClear bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent imports and saved levels",
	Long: `Display the import and level history recorded by the editor.

By default an interactive table is shown. Use --plain to print the
history instead, for example when piping the output.

Examples:
  tileforge history
  tileforge history --plain --limit 5
  tileforge history --clear`,
	Args: cobra.NoArgs,
	Run:  runHistory,
}

func init() {
	historyCmd.Flags().BoolVar(&flagPlain, "plain", false, "Print history instead of opening the table view")
	historyCmd.Flags().IntVar(&flagLimit, "limit", 10, "Number of entries to print with --plain")
	historyCmd.Flags().BoolVar(&flagClear, "clear", false, "Delete all recorded history")
}

func runHistory(_ *cobra.Command, _ []string) {
	cfg, err := loadConfig()
	exitOnError("loading config", err)

	// Open history storage
	store, err := storage.Open(cfg.Storage.DBPath)
	exitOnError("opening history database", err)
	defer store.Close()

	if flagClear {
		err := store.ClearHistory()
		exitOnError("clearing history", err)
		fmt.Println("History cleared.")
		return
	}

	if !flagPlain && term.IsTerminal(int(os.Stdout.Fd())) {
		width, height := 80, 24 // Defaults
		if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
			width = w
			height = h
		}
		err := tui.RunHistory(store, width, height)
		exitOnError("running history view", err)
		return
	}

	printHistory(store, flagLimit)
}

func printHistory(store *storage.Store, limit int) {
	imports, err := store.RecentImports(limit)
	exitOnError("retrieving imports", err)

	fmt.Println("Recent Imports")
	fmt.Println()
	if len(imports) == 0 {
		fmt.Println("No imports recorded yet.")
	} else {
		fmt.Printf("  %-16s  %-6s  %-6s  %-10s  %s\n", "Date", "Size", "Tiles", "Result", "Path")
		fmt.Printf("  %-16s  %-6s  %-6s  %-10s  %s\n", "----", "----", "-----", "------", "----")
		for _, entry := range imports {
			fmt.Printf("  %-16s  %-6d  %-6d  %-10s  %s\n",
				entry.CreatedAt.Format("2006-01-02 15:04"),
				entry.TileSize, entry.Tiles, shortResult(entry), entry.Path)
		}
	}

	stats, err := store.ImportStats()
	if err == nil && len(stats) > 0 {
		results := make([]string, 0, len(stats))
		for r := range stats {
			results = append(results, r)
		}
		sort.Strings(results)
		fmt.Println()
		for _, r := range results {
			fmt.Printf("  %s: %d\n", r, stats[r])
		}
	}

	levels, err := store.RecentLevels(limit)
	exitOnError("retrieving levels", err)

	fmt.Println()
	fmt.Println("Recent Levels")
	fmt.Println()
	if len(levels) == 0 {
		fmt.Println("No levels saved or loaded yet.")
		return
	}
	fmt.Printf("  %-16s  %-6s  %-6s  %-6s  %s\n", "Date", "Action", "Sheets", "Cells", "Path")
	fmt.Printf("  %-16s  %-6s  %-6s  %-6s  %s\n", "----", "------", "------", "-----", "----")
	for _, entry := range levels {
		fmt.Printf("  %-16s  %-6s  %-6d  %-6d  %s\n",
			entry.CreatedAt.Format("2006-01-02 15:04"),
			entry.Action, entry.Sheets, entry.Cells, entry.Path)
	}
}

func shortResult(entry storage.ImportEntry) string {
	if entry.Accepted() {
		return "ok"
	}
	return "failed"
}
