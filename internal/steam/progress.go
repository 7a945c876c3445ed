package steam

import (
	"regexp"
	"strconv"
	"strings"

	"cs2panel/internal/domain"
)

var (
	progressRe = regexp.MustCompile(`Update state \(0x[0-9a-fA-F]+\) (\w+), progress:\s*([\d.]+)`)
	successRe  = regexp.MustCompile(`Success! App '\d+' fully installed\.`)
	errorRe    = regexp.MustCompile(`^Error!`)
)

// ParseProgressLine turns a SteamCMD output line into a Progress, or
// nil when the line carries no progress information.
func ParseProgressLine(line string) *domain.Progress {
	if m := progressRe.FindStringSubmatch(line); m != nil {
		pct, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return nil
		}
		return &domain.Progress{
			Stage:   normalizeStage(m[1]),
			Percent: pct,
			Message: line,
		}
	}
	if successRe.MatchString(line) {
		return &domain.Progress{Stage: "complete", Percent: 100, Message: line}
	}
	if errorRe.MatchString(line) {
		return &domain.Progress{Stage: "error", Message: line}
	}
	return nil
}

func normalizeStage(raw string) string {
	switch strings.ToLower(raw) {
	case "downloading":
		return "downloading"
	case "verifying", "validating":
		return "validating"
	case "preallocating", "reconfiguring", "committing", "installing":
		return "installing"
	default:
		return strings.ToLower(raw)
	}
}
