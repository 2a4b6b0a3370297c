package meta

import (
	"fmt"
	"strings"
	"time"
)

// historyStamp avoids ": " sequences, which separate items within a history
// line.
const historyStamp = time.ANSIC

// HistoryEntry formats one history line: "<timestamp>: <marker>: <tool>
// <args>", where marker is "start" or "end".
func HistoryEntry(marker, tool string, args []string) string {
	cmd := tool
	if len(args) > 0 {
		cmd += " " + strings.Join(args, " ")
	}
	return fmt.Sprintf("%s: %s: %s", clock.Now().UTC().Format(historyStamp), marker, cmd)
}

// PrependHistory stacks new history lines above the existing attribute
// value, newest first, as the statistics tools themselves do.
func PrependHistory(existing string, lines ...string) string {
	all := make([]string, 0, len(lines)+1)
	for i := len(lines) - 1; i >= 0; i-- {
		all = append(all, lines[i])
	}
	if existing != "" {
		all = append(all, existing)
	}
	return strings.Join(all, "\n")
}
