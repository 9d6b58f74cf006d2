package web

//go:generate templ generate

import (
	"fmt"
	"strconv"

	"github.com/JonMunkholm/fieldnotes/internal/core"
)

// pollInterval is how often an HTMX status fragment refreshes itself while
// the job runs.
const pollInterval = "2s"

func isRunning(s core.State) bool {
	return s == core.StateNotStarted || s == core.StateOngoing
}

func progressOf(st statusResponse) core.Progress {
	if st.Progress == nil {
		return core.Progress{}
	}
	return *st.Progress
}

func progressValue(st statusResponse) string {
	return strconv.Itoa(progressOf(st).ValidatedRows)
}

func progressMax(st statusResponse) string {
	return strconv.Itoa(max(progressOf(st).RowsToValidate, 1))
}

func progressLine(st statusResponse) string {
	p := progressOf(st)
	return fmt.Sprintf("%d of %d rows checked, %d rejected", p.ValidatedRows, p.RowsToValidate, p.ErrorCount)
}

func completeLine(st statusResponse) string {
	return fmt.Sprintf("Import complete: %d inserted", derefInt(st.InsertedCount))
}

func rejectedLine(st statusResponse) string {
	return fmt.Sprintf("%d rows rejected.", derefInt(st.ErrorCount))
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
