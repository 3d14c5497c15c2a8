package answer

import (
	"regexp"
	"strings"
	"time"

	"github.com/jobtrail/jobtrail/internal/model"
)

// queryRoute selects the retrieval strategy for a question.
type queryRoute int

const (
	routeSemantic queryRoute = iota
	routeStatusFilter
	routeAggregate
)

func (r queryRoute) String() string {
	switch r {
	case routeStatusFilter:
		return "status-filter"
	case routeAggregate:
		return "aggregate"
	default:
		return "semantic"
	}
}

// parsedQuery is the routing decision for one question.
type parsedQuery struct {
	start  *time.Time
	end    *time.Time
	status model.ApplicationStatus
	route  queryRoute
}

// statusTokens maps question vocabulary onto lifecycle statuses.
var statusTokens = map[string]model.ApplicationStatus{
	"applied":      model.StatusApplied,
	"interview":    model.StatusInterview,
	"interviews":   model.StatusInterview,
	"interviewing": model.StatusInterview,
	"offer":        model.StatusOffer,
	"offers":       model.StatusOffer,
	"rejected":     model.StatusRejected,
	"rejection":    model.StatusRejected,
	"rejections":   model.StatusRejected,
	"withdrawn":    model.StatusWithdrawn,
	"withdrew":     model.StatusWithdrawn,
}

var aggregateMarkers = []string{"how many", "count of", "number of", "total"}

var monthYearPattern = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{4})\b`)

var months = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

// relativeWindows maps relative month phrases onto an offset from the
// current month.
var relativeWindows = []struct {
	phrase    string
	monthsAgo int
}{
	{"last month", 1},
	{"this month", 0},
	{"past month", 1},
}

// parseQuery routes a question. Aggregate markers win over status tokens
// ("how many rejections in March" is an aggregate over REJECTED); a bare
// status token routes to a direct record scan; everything else is
// semantic retrieval. Relative date phrases resolve against now.
func parseQuery(question string, now time.Time) parsedQuery {
	lower := strings.ToLower(question)

	parsed := parsedQuery{route: routeSemantic, status: model.StatusUnknown}

	for token, status := range statusTokens {
		if containsWord(lower, token) {
			parsed.status = status
			parsed.route = routeStatusFilter
			break
		}
	}

	for _, marker := range aggregateMarkers {
		if strings.Contains(lower, marker) {
			parsed.route = routeAggregate
			break
		}
	}

	if parsed.route == routeAggregate {
		parsed.start, parsed.end = parseDateRange(lower, now)
	}

	return parsed
}

// parseDateRange recognizes "month YYYY" mentions and relative phrases
// like "last month", returning the half-open [start, end) window covering
// them. One absolute mention covers that month; two cover the span
// between them.
func parseDateRange(lower string, now time.Time) (start, end *time.Time) {
	for _, w := range relativeWindows {
		if strings.Contains(lower, w.phrase) {
			first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -w.monthsAgo, 0)
			rangeEnd := first.AddDate(0, 1, 0)
			return &first, &rangeEnd
		}
	}

	matches := monthYearPattern.FindAllStringSubmatch(lower, 2)
	if len(matches) == 0 {
		return nil, nil
	}

	first := monthStart(matches[0])
	last := first
	if len(matches) > 1 {
		last = monthStart(matches[1])
		if last.Before(first) {
			first, last = last, first
		}
	}

	rangeEnd := last.AddDate(0, 1, 0)
	return &first, &rangeEnd
}

func monthStart(match []string) time.Time {
	month := months[strings.ToLower(match[1])]
	year := 0
	for _, c := range match[2] {
		year = year*10 + int(c-'0')
	}
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

// containsWord matches a whole token, so "offered" does not trip "offer"
// while "offers." does.
func containsWord(text, word string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], word)
		if i < 0 {
			return false
		}
		i += idx
		before := i == 0 || !isWordRune(rune(text[i-1]))
		afterIdx := i + len(word)
		after := afterIdx >= len(text) || !isWordRune(rune(text[afterIdx]))
		if before && after {
			return true
		}
		idx = i + len(word)
	}
}

func isWordRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}
