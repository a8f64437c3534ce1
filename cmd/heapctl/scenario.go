package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/cellheap/heap"
	"github.com/joshuapare/cellheap/internal/format"
)

func init() {
	rootCmd.AddCommand(newScenarioCmd())
}

func newScenarioCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenario [reclaim|protect|extra-cost|all]",
		Short: "Replay the reference collection scenarios",
		Long: `The scenario command runs small, deterministic collection scenarios on
a fresh heap and checks their outcome:

  reclaim     dropped cells are reclaimed and handed out again
  protect     a protected cell survives until it is unprotected
  extra-cost  reported external memory makes allocation collect sooner

Example:
  heapctl scenario
  heapctl scenario protect --json`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"reclaim", "protect", "extra-cost", "all"},
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "all"
			if len(args) == 1 {
				name = args[0]
			}
			return runScenario(name)
		},
	}
	return cmd
}

// ScenarioResult is the outcome of one scenario.
type ScenarioResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

type scenario struct {
	name string
	run  func() (bool, string, error)
}

var scenarios = []scenario{
	{"reclaim", scenarioReclaim},
	{"protect", scenarioProtect},
	{"extra-cost", scenarioExtraCost},
}

func runScenario(name string) error {
	var selected []scenario
	for _, s := range scenarios {
		if name == "all" || name == s.name {
			selected = append(selected, s)
		}
	}
	if len(selected) == 0 {
		return fmt.Errorf("unknown scenario %q", name)
	}

	results := make([]ScenarioResult, 0, len(selected))
	for _, s := range selected {
		printVerbose("Running scenario: %s\n", s.name)
		ok, detail, err := s.run()
		if err != nil {
			return fmt.Errorf("scenario %s: %w", s.name, err)
		}
		results = append(results, ScenarioResult{Name: s.name, Passed: ok, Detail: detail})
	}

	if jsonOut {
		if err := printJSON(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			status := "PASS"
			if !r.Passed {
				status = "FAIL"
			}
			printInfo("%-4s %-10s %s\n", status, r.Name, r.Detail)
		}
	}

	var failed []string
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r.Name)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("scenarios failed: %s", strings.Join(failed, ", "))
	}
	return nil
}

func newScenarioHeap(apc int) (*heap.Heap, error) {
	return heap.New(heap.Options{AllocationsPerCollection: apc, StackWords: 1024})
}

func allocateN(h *heap.Heap, n int) ([]uintptr, error) {
	cells := make([]uintptr, n)
	for i := range cells {
		c, err := h.Allocate(format.CellSize)
		if err != nil {
			return nil, err
		}
		cells[i] = c
	}
	return cells, nil
}

// scenarioReclaim drops ten cells, collects, and allocates ten more.
func scenarioReclaim() (bool, string, error) {
	h, err := newScenarioHeap(1 << 30)
	if err != nil {
		return false, "", err
	}
	defer h.Close()

	before := h.Size()
	cells, err := allocateN(h, 10)
	if err != nil {
		return false, "", err
	}
	grown := h.Size()
	h.Collect()
	after := h.Size()

	again, err := allocateN(h, 10)
	if err != nil {
		return false, "", err
	}
	reused := 0
	for _, c := range again {
		if slices.Contains(cells, c) {
			reused++
		}
	}

	ok := grown-before == 10*format.CellSize && after == before && reused == 10
	return ok, fmt.Sprintf("size %d -> %d -> %d bytes, %d/10 cells reused", before, grown, after, reused), nil
}

// scenarioProtect checks a protected cell across two collections.
func scenarioProtect() (bool, string, error) {
	h, err := newScenarioHeap(1 << 30)
	if err != nil {
		return false, "", err
	}
	defer h.Close()

	c, err := h.Allocate(format.CellSize)
	if err != nil {
		return false, "", err
	}
	h.Protect(c)
	h.Collect()
	survived := h.Owns(c)

	h.Unprotect(c)
	h.Collect()
	reclaimed := !h.Owns(c)

	return survived && reclaimed, fmt.Sprintf("survived protected: %t, reclaimed after unprotect: %t", survived, reclaimed), nil
}

// scenarioExtraCost compares collections with and without reported cost.
func scenarioExtraCost() (bool, string, error) {
	const apc = 64

	collections := func(cost int) (int, error) {
		h, err := newScenarioHeap(apc)
		if err != nil {
			return 0, err
		}
		defer h.Close()
		if _, err := allocateN(h, 10); err != nil {
			return 0, err
		}
		h.ReportExtraMemoryCost(cost)
		if _, err := h.Allocate(format.CellSize); err != nil {
			return 0, err
		}
		return h.Stats().Collections, nil
	}

	without, err := collections(0)
	if err != nil {
		return false, "", err
	}
	with, err := collections(10000)
	if err != nil {
		return false, "", err
	}
	return without == 0 && with == 1, fmt.Sprintf("collections without cost: %d, with 10000 bytes: %d", without, with), nil
}
