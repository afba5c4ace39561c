package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/deisterstuff/investment/internal/indicators"
	"github.com/deisterstuff/investment/internal/optimizer"
	"github.com/deisterstuff/investment/internal/portfolio"
	"github.com/deisterstuff/investment/internal/risk"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const (
	doubleLine = "═══════════════════════════════════════════════════════════"
	singleLine = "───────────────────────────────────────────────────────────"
)

// PrintSeparator prints a visual separator
func PrintSeparator(w io.Writer) {
	fmt.Fprintln(w, singleLine)
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator(w io.Writer) {
	fmt.Fprintln(w, doubleLine)
}

// PrintWarning prints a warning message
func PrintWarning(w io.Writer, message string) {
	fmt.Fprintf(w, "⚠️  %s\n", message)
}

// PrintSuccess prints a success message
func PrintSuccess(w io.Writer, message string) {
	fmt.Fprintf(w, "✅ %s\n", message)
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(w io.Writer, key string, value string, keyWidth int) {
	fmt.Fprintf(w, "   %-*s : %s\n", keyWidth, key, value)
}

// PrintTableHeader prints a table header
func PrintTableHeader(w io.Writer, columns []string, widths []int) {
	PrintTableRow(w, columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Fprintln(w, strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(w io.Writer, values []string, widths []int) {
	for i, val := range values {
		fmt.Fprintf(w, "%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Fprint(w, "  ")
		}
	}
	fmt.Fprintln(w)
}

// PrintJSON writes v as indented JSON
func PrintJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatFloat NaN/Inf는 "n/a"
func formatFloat(v float64, prec int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}

// PrintRun prints the three selected portfolios and their risk reports
func PrintRun(w io.Writer, run *optimizer.Run) {
	sel := run.Selection

	fmt.Fprintln(w)
	PrintDoubleSeparator(w)
	fmt.Fprintf(w, "  Portfolio selection: %s\n", run.Profile)
	PrintSeparator(w)
	PrintKeyValue(w, "Run ID", run.ID, 10)
	PrintKeyValue(w, "Period", fmt.Sprintf("%s ~ %s (%s)", run.From.Format("2006-01-02"), run.To.Format("2006-01-02"), run.Interval), 10)
	PrintKeyValue(w, "Budget", formatFloat(sel.Budget, 2), 10)
	PrintKeyValue(w, "Exposure", sel.Exposure.String(), 10)
	PrintKeyValue(w, "Candidates", fmt.Sprintf("%d sampled, %d feasible", sel.Sampled, sel.Feasible), 10)
	if run.Currency != "" {
		PrintKeyValue(w, "Currency", run.Currency, 10)
	}
	PrintDoubleSeparator(w)

	for _, obj := range portfolio.Objectives() {
		best, _ := sel.Best(obj)
		printBest(w, sel, best, run.Risk[obj])
	}

	for _, warning := range run.Warnings {
		PrintWarning(w, warning)
	}
	if !run.Persisted {
		PrintWarning(w, "run was not persisted")
	}
}

func printBest(w io.Writer, sel *portfolio.Selection, best portfolio.BestPortfolio, report *risk.Report) {
	fmt.Fprintln(w)
	title := fmt.Sprintf("[%s] return %s  volatility %s  ratio %s",
		best.Objective, formatFloat(best.Return, 4), formatFloat(best.Volatility, 4), formatFloat(best.Ratio, 3))
	if best.Degenerate {
		title += "  (degenerate)"
	}
	fmt.Fprintln(w, title)

	widths := []int{10, 10, 8, 12}
	PrintTableHeader(w, []string{"Ticker", "Weight", "Shares", "Value"}, widths)
	for j, ticker := range sel.Tickers {
		value := float64(best.Shares[j]) * sel.Prices[j]
		PrintTableRow(w, []string{
			ticker,
			formatFloat(best.Weights[j]*100, 2) + "%",
			strconv.FormatInt(best.Shares[j], 10),
			formatFloat(value, 2),
		}, widths)
	}
	PrintKeyValue(w, "Spent", best.Spent.StringFixed(2), 6)
	PrintKeyValue(w, "Cash", best.Cash.StringFixed(2), 6)

	if report != nil {
		PrintKeyValue(w, "Risk", fmt.Sprintf("VaR95 %s  CVaR95 %s  MDD %s",
			formatFloat(report.VaR95, 4), formatFloat(report.CVaR95, 4), formatFloat(report.MaxDrawdown, 4)), 6)
		PrintKeyValue(w, "Normal", fmt.Sprintf("VaR95 %s  CVaR95 %s",
			formatFloat(report.ParametricVaR95, 4), formatFloat(report.ParametricCVaR95, 4)), 6)
	}
}

// PrintSignals prints one row per ticker snapshot
func PrintSignals(w io.Writer, snaps []indicators.Snapshot) {
	widths := []int{10, 10, 10, 10, 6, 8, 8, 9}
	PrintTableHeader(w, []string{"Ticker", "Close", "Upper", "Lower", "Band", "Rebound", "RSI", "Momentum"}, widths)
	for _, s := range snaps {
		PrintTableRow(w, []string{
			s.Ticker,
			formatFloat(s.Close, 2),
			formatFloat(s.Upper, 2),
			formatFloat(s.Lower, 2),
			strconv.Itoa(s.Band),
			strconv.Itoa(s.Rebound),
			formatFloat(s.RSI, 1),
			formatFloat(s.Momentum, 4),
		}, widths)
	}
}
