package httpclient

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kavanlabs/primewatch/internal/types"
)

// resourceLimitsPattern matches the service's CPU/quota status text, e.g.
// "Page requests ... 1,234 ... CPU ... >12.3 seconds ... 600.0 seconds ... 04:17".
// (?s) lets '.' span newlines, matching the (?s:...) flag original_source's
// regex for this same status text uses.
var resourceLimitsPattern = regexp.MustCompile(
	`(?s)Page requests(?:[^0-9])+([0-9,]+).*CPU.*>([0-9]+)\.([0-9]) seconds.*600\.0 seconds.*([0-6][0-9]):([0-6][0-9])`,
)

// ParseResourceLimits extracts CPU spend and reset time from a status page
// body. Returns ok=false if the pattern does not match (the page is not a
// resource-limits notice).
func ParseResourceLimits(body string) (types.ResourceLimits, bool) {
	m := resourceLimitsPattern.FindStringSubmatch(body)
	if m == nil {
		return types.ResourceLimits{}, false
	}

	cpuSeconds, err1 := strconv.ParseUint(m[2], 10, 64)
	cpuTenthsWithin, err2 := strconv.ParseUint(m[3], 10, 64)
	minutesToReset, err3 := strconv.ParseUint(m[4], 10, 64)
	secondsWithin, err4 := strconv.ParseUint(m[5], 10, 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return types.ResourceLimits{}, false
	}
	_ = strings.ReplaceAll(m[1], ",", "") // requests count, not currently surfaced by this parser

	cpuTenthsSpent := cpuSeconds*10 + cpuTenthsWithin
	secondsToReset := minutesToReset*60 + secondsWithin

	return types.ResourceLimits{
		CPUTenthsSpent: cpuTenthsSpent,
		ResetsAt:       time.Now().Add(time.Duration(secondsToReset) * time.Second),
	}, true
}
