// Command heapexplorer is an interactive terminal view of a live heap. It
// allocates object graphs on demand and shows block occupancy, root counts
// and collection results as they change.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/cellheap/heap"
	"github.com/joshuapare/cellheap/internal/logger"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	args := os.Args[1:]
	debugMode := false
	apc := heap.DefaultAllocationsPerCollection

	for i := 0; i < len(args); i++ {
		switch arg := args[i]; arg {
		case "--debug", "-d":
			debugMode = true
		case "--help", "-h":
			printHelp()
			os.Exit(0)
		case "--version", "-v":
			fmt.Printf("heapexplorer %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built: %s\n", date)
			os.Exit(0)
		case "--apc":
			if i+1 >= len(args) {
				printUsage()
				os.Exit(1)
			}
			n, err := strconv.Atoi(args[i+1])
			if err != nil || n <= 0 {
				fmt.Fprintf(os.Stderr, "Error: invalid --apc value %q\n", args[i+1])
				os.Exit(1)
			}
			apc = n
			i++
		default:
			printUsage()
			os.Exit(1)
		}
	}

	logPath, err := initLogging(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to init logging: %v\n", err)
	}
	logger.Info("starting heapexplorer", "debug", debugMode, "apc", apc, "log", logPath)

	m, err := NewModel(heap.Options{AllocationsPerCollection: apc})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		logger.Error("TUI error", "error", err)
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}

	if model, ok := finalModel.(Model); ok {
		if err := model.Close(); err != nil {
			logger.Warn("error closing heap", "error", err)
		}
	}
	logger.Info("heapexplorer exited normally")
}

// initLogging sends collector and UI logs to a file in the temp directory,
// since the terminal belongs to the UI.
func initLogging(enabled bool) (string, error) {
	if !enabled {
		return "", nil
	}
	path := filepath.Join(os.TempDir(), "heapexplorer-"+time.Now().Format("20060102-150405")+".log")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	return path, logger.Init(logger.Options{
		Enabled: true,
		Writer:  f,
		Level:   slog.LevelDebug,
	})
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: heapexplorer [options]\n")
	fmt.Fprintf(os.Stderr, "Try 'heapexplorer --help' for more information.\n")
}

func printHelp() {
	fmt.Println("heapexplorer - Interactive TUI for the cellheap collector")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  heapexplorer [options]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Starts a fresh heap and lets you allocate, root, protect and collect")
	fmt.Println("  values while watching block occupancy and collector statistics.")
	fmt.Println()
	fmt.Println("  Keys:")
	fmt.Println("    a           Allocate a batch of linked objects")
	fmt.Println("    s           Allocate a large string (reports extra cost)")
	fmt.Println("    r / d       Root the last batch on the stack / drop stack roots")
	fmt.Println("    p / u       Protect / unprotect the last batch")
	fmt.Println("    c           Collect")
	fmt.Println("    v           Verify heap invariants")
	fmt.Println("    y           Copy statistics as JSON")
	fmt.Println("    ?           Show help")
	fmt.Println("    q           Quit")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  --apc N        Allocations per collection (default 4000)")
	fmt.Println("  -d, --debug    Write debug logs to the temp directory")
	fmt.Println("  -h, --help     Show this help message")
	fmt.Println("  -v, --version  Show version information")
	fmt.Println()
	fmt.Println("For non-interactive runs, use the 'heapctl' command instead.")
}
