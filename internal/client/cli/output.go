package cli

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// numbers groups thousands the way the loan book is read ("1.500.000").
var numbers = message.NewPrinter(language.Indonesian)

func formatAmount(v float64) string {
	return "Rp " + numbers.Sprintf("%d", int64(math.Round(v)))
}

func formatCount[N ~int | ~int64](n N) string {
	return numbers.Sprintf("%d", int64(n))
}

func formatRate(v float64) string {
	return numbers.Sprintf("%.2f%%", v)
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

// table writes aligned columns to the app output.
func (a *App) table(header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// outputJSON prints v as indented JSON.
func (a *App) outputJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
