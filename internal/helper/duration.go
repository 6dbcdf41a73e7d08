package helper

import (
	"fmt"
	"time"
)

// FormatWait renders a wait duration the way the front-desk screens
// show it: "5 min" under an hour, "1h 20m" above.
func FormatWait(d time.Duration) string {
	minutes := int(d.Minutes())
	if minutes < 0 {
		minutes = 0
	}
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}
