package augment

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/convoke-ai/convoke/search"
)

// windowRule maps a freshness phrase to a recency window. Rules are
// ordered most-specific first; the first match wins.
type windowRule struct {
	pattern *regexp.Regexp
	window  search.Window
}

var windowRules = []windowRule{
	{re(`\b(today|right now)\b`), search.WindowDay},
	{re(`\bthis week\b`), search.WindowWeek},
	{re(`\b(this month|last week)\b`), search.WindowMonth},
	{re(`\blast month\b`), search.WindowQuarter},
	{re(`\bthis year\b`), search.WindowYear},
}

// genericFreshnessPattern catches freshness wording with no more
// specific time anchor.
var genericFreshnessPattern = re(`\b(latest|current|currently|now|recent|recently|breaking|news|up[ -]to[ -]date)\b`)

// DetectWindow maps the query's freshness phrasing to a recency
// window: the fixed phrase table first, then an explicit current-year
// mention, then generic freshness words, then unrestricted.
func DetectWindow(query string) search.Window {
	lower := strings.ToLower(query)
	for _, rule := range windowRules {
		if rule.pattern.MatchString(lower) {
			return rule.window
		}
	}
	if strings.Contains(lower, strconv.Itoa(time.Now().Year())) {
		return search.WindowYear
	}
	if genericFreshnessPattern.MatchString(lower) {
		return search.WindowMonth
	}
	return search.WindowUnrestricted
}
