package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

var (
	stdinReader = bufio.NewReader(os.Stdin)
	accent      = color.New(color.FgCyan, color.Bold)
	success     = color.New(color.FgGreen, color.Bold)
	warn        = color.New(color.FgYellow, color.Bold)
	neutral     = color.New(color.FgHiWhite)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func promptConfirm(label string) (bool, error) {
	fmt.Printf("%s (y/N): ", label)
	text, err := stdinReader.ReadString('\n')
	if err != nil {
		return false, err
	}
	text = strings.ToLower(strings.TrimSpace(text))
	return text == "y" || text == "yes", nil
}

// renderRows prints the {"rows": [...]} shape both list endpoints return.
func renderRows(title string, payload map[string]any, valueKey string) {
	accent.Printf("\n== %s ==\n", title)
	rows, _ := payload["rows"].([]any)
	if len(rows) == 0 {
		printInfo("No entries yet.")
		return
	}
	fmt.Printf("%-4s %-22s %12s\n", "#", "USER ID", strings.ToUpper(valueKey))
	for _, raw := range rows {
		row, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		fmt.Printf("%-4s %-22s %12s\n",
			formatNumber(row["position"]),
			stringOf(row["user_id"]),
			formatNumber(row[valueKey]))
	}
}

func renderUserStats(out map[string]any) {
	accent.Printf("\n== USER %s ==\n", stringOf(out["user_id"]))
	fmt.Printf("Rank:            %s\n", stringOf(out["rank"]))
	fmt.Printf("Points:          %s\n", formatNumber(out["score"]))
	fmt.Printf("Production Runs: %s\n", formatNumber(out["seasons_played"]))
	fmt.Printf("Top 30 Finishes: %s\n", formatNumber(out["top_30_finishes"]))
	fmt.Printf("Tokens:          %s\n", formatNumber(out["token_balance"]))
	fmt.Printf("Token Value:     $%s USD\n", formatNumber(out["token_value_usd"]))
	if wallet := stringOf(out["wallet_address"]); wallet != "" {
		fmt.Printf("Wallet:          %s\n", wallet)
	}
}

func stringOf(v any) string {
	s, _ := v.(string)
	return s
}

// formatNumber renders the float64 values encoding/json produces for
// untyped numbers without a trailing ".000000".
func formatNumber(v any) string {
	switch n := v.(type) {
	case float64:
		if n == float64(int64(n)) {
			return strconv.FormatInt(int64(n), 10)
		}
		return strconv.FormatFloat(n, 'f', 2, 64)
	case int64:
		return strconv.FormatInt(n, 10)
	case int:
		return strconv.Itoa(n)
	case string:
		return n
	default:
		return fmt.Sprintf("%v", v)
	}
}
