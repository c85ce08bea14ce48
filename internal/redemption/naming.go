package redemption

import (
	"regexp"
	"strconv"
	"strings"
)

var bonusDaysRegexp = regexp.MustCompile(`\+(\d+)`)

// IsWFHReward reports whether a reward name marks it as a remote-work day
// reward.
func IsWFHReward(name string) bool {
	return strings.Contains(strings.ToLower(name), "wfh")
}

// ParseBonusDays extracts N from a "+N" marker in a reward name, such as
// "WFH Day +2". A name without a usable marker is worth one day.
func ParseBonusDays(name string) int {
	m := bonusDaysRegexp.FindStringSubmatch(name)
	if m == nil {
		return 1
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 1
	}
	return n
}
