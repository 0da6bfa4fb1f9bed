package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ClampDecimals normalizes a wire-format numeric string to at most 5 decimal
// places. The backend occasionally emits scientific notation for zero values
// ("0E-8"), which is rendered as "0.00000".
func ClampDecimals(v string) string {
	if strings.Contains(v, "E-") || strings.Contains(v, "e-") {
		return "0.00000"
	}

	num, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return v
	}

	frac := 0
	if i := strings.IndexByte(v, '.'); i >= 0 {
		frac = len(v) - i - 1
	}
	if frac > 5 {
		frac = 5
	}

	return strconv.FormatFloat(num, 'f', frac, 64)
}

// FormatHistory clamps the numeric fields of every position and returns the
// list sorted by completion time, newest first. The input slice is not
// mutated.
func FormatHistory(positions []HistoryPosition) []HistoryPosition {
	if len(positions) == 0 {
		return []HistoryPosition{}
	}

	out := make([]HistoryPosition, len(positions))
	copy(out, positions)

	for i := range out {
		out[i].Leverage = ClampDecimals(out[i].Leverage)
		out[i].PNL = ClampDecimals(out[i].PNL)
		out[i].ROI = ClampDecimals(out[i].ROI)
		out[i].PositionSizeFix = ClampDecimals(out[i].PositionSizeFix)
		out[i].PositionSizePercent = ClampDecimals(out[i].PositionSizePercent)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return parseWireTime(out[i].FinalTime).After(parseWireTime(out[j].FinalTime))
	})

	return out
}

func parseWireTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// TruncateAddress renders a wallet address for display: first and last five
// characters with an ellipsis between.
func TruncateAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:5] + "..." + addr[len(addr)-5:]
}

// ShortenTxHash renders a transaction hash the way the mint popup expects it.
func ShortenTxHash(hash string) string {
	if len(hash) < 8 {
		return hash
	}
	return " 0x" + hash[:4] + "... " + hash[len(hash)-4:]
}

func signPrefixed(v string) string {
	if strings.HasPrefix(v, "+") || strings.HasPrefix(v, "-") {
		return v
	}
	return "+" + v
}

// MintLabel builds the on-chain collectible label from the last result:
// sign-prefixed ROI as a percentage, sign-prefixed PNL with the currency
// suffix.
func MintLabel(pnl, roi string) string {
	return fmt.Sprintf("%s%%/%s MON", signPrefixed(roi), signPrefixed(pnl))
}

// FormatROI renders an ROI value for share texts, e.g. "+12.500%".
func FormatROI(roi float64) string {
	if roi >= 0 {
		return fmt.Sprintf("+%.3f%%", roi)
	}
	return fmt.Sprintf("%.3f%%", roi)
}

// ShareText builds the social share blurb for a finished round.
func ShareText(roi float64, name string) string {
	prefix := "We keep earning MONs on"
	if roi < 0 {
		prefix = "We keep losing MONs on"
	}
	return fmt.Sprintf("%s %s game mf, my ROI is %s", prefix, name, FormatROI(roi))
}
