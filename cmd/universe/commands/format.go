package commands

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wonny/universe/internal/pipeline"
	"github.com/wonny/universe/internal/refdata"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintHeader prints a formatted command header
func PrintHeader(title string) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", title)
	PrintSeparator()
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Printf("⚠️  %s\n", message)
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintReferences prints the load status of every reference file
func PrintReferences(status []refdata.FileStatus) {
	widths := []int{8, 8, 8, 40}
	PrintTableHeader([]string{"FILE", "STATUS", "ENTRIES", "PATH"}, widths)
	for _, st := range status {
		state := "ok"
		switch {
		case st.Missing:
			state = "missing"
		case !st.Loaded:
			state = "invalid"
		}
		PrintTableRow([]string{st.Name, state, fmt.Sprint(st.Entries), st.Path}, widths)
	}
}

// PrintRunResult prints a pipeline run summary
func PrintRunResult(r *pipeline.RunResult) {
	PrintSeparator()
	PrintKeyValue("Trade date", r.TradeDate, 12)
	PrintKeyValue("Prev date", r.PrevTradeDate, 12)
	PrintKeyValue("Rows", fmt.Sprint(r.Snapshot.Count()), 12)
	PrintKeyValue("Duration", r.Duration.Round(time.Millisecond).String(), 12)
	if len(r.SkippedStages) > 0 {
		PrintKeyValue("Skipped", strings.Join(r.SkippedStages, ", "), 12)
	}
	for _, f := range r.Files {
		PrintKeyValue("Wrote", f, 12)
	}

	sinks := make([]string, 0, len(r.SinkErrors))
	for name := range r.SinkErrors {
		sinks = append(sinks, name)
	}
	sort.Strings(sinks)
	for _, name := range sinks {
		PrintWarning(fmt.Sprintf("%s sink failed: %s", name, r.SinkErrors[name]))
	}
	PrintSeparator()
}
