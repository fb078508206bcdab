package augment

import (
	"regexp"
	"strings"
)

// Directive is the caller's explicit say over search augmentation.
type Directive string

const (
	// DirectiveAuto leaves the decision to the heuristics.
	DirectiveAuto Directive = "auto"
	// DirectiveAlways forces augmentation.
	DirectiveAlways Directive = "always"
	// DirectiveOff forbids augmentation.
	DirectiveOff Directive = "off"
)

const (
	triggerThreshold = 2
	minQueryChars    = 15
)

// optOutPatterns short-circuit the decision to false: the user said in
// so many words not to search.
var optOutPatterns = compile(
	`don'?t search`,
	`do not search`,
	`no search`,
	`without search`,
	`from (your )?memory`,
	`don'?t look (it |anything )?up`,
)

// optInPatterns short-circuit to true.
var optInPatterns = compile(
	`search (for|the web|online)`,
	`look (it |this )?up`,
	`google (it|this|for)`,
	`find (the latest|current|recent)`,
	`check online`,
)

// patternFamily is one row of the weighted scoring table. The weights
// are heuristic, tuned for behavioral parity with production traffic
// rather than derived from first principles.
type patternFamily struct {
	name    string
	weight  int
	pattern *regexp.Regexp
}

var scoreFamilies = []patternFamily{
	{"freshness", +3, re(`\b(latest|current|today|now|right now|currently|recent|recently|breaking|news|up[ -]to[ -]date)\b`)},
	{"volatile-data", +3, re(`\b(price|prices|cost|stock|stocks|share price|market cap|score|scores|weather|forecast|exchange rate|interest rate|inflation|ranking|rankings|standings|odds)\b`)},
	{"factual-question", +2, re(`\b(who is|who was|what is|what are|what was|when is|when did|when was|where is|where was|how many|how much|how old|how far|how long)\b`)},
	{"recent-time", +2, re(`\b(20[2-9][0-9]|yesterday|last night|last week|last month|this morning|tonight)\b`)},
	{"verification", +2, re(`\b(verify|fact[ -]?check|confirm|is it true|did .{1,40} (really|actually)|actually true)\b`)},
	{"comparison", +2, re(`\b(vs\.?|versus|compare|compared to|comparison|better than|worse than|difference between)\b`)},
	{"named-entity", +2, re(`\b[A-Z][a-z]+ [A-Z][a-z]+\b`)},
	{"question-mark", +1, re(`\?`)},
	{"how-to", +1, re(`\b(how to|how do i|how can i|how does)\b`)},
	{"tech-brand", +1, re(`\b(iphone|android|tesla|bitcoin|ethereum|crypto|chatgpt|gpt|openai|google|apple|microsoft|amazon|meta|nvidia|ai model)\b`)},
	{"legal-regulatory", +1, re(`\b(law|laws|legal|regulation|regulations|tax|taxes|tariff|visa|policy|legislation|ruling|lawsuit)\b`)},
	{"events-entertainment", +1, re(`\b(movie|film|album|concert|tour|season|episode|game|match|tournament|election|release date|premiere|box office)\b`)},
	{"health", +1, re(`\b(symptom|symptoms|vaccine|medication|dosage|treatment|side effect|side effects|outbreak|recall)\b`)},
	{"summarize-edit", -3, re(`\b(summarize|summarise|summary of this|rewrite|rephrase|paraphrase|proofread|edit this|translate|shorten|tl;?dr)\b`)},
	{"creative-writing", -3, re(`\b(write (me )?a (story|poem|song|haiku|essay|letter|speech)|fiction|brainstorm|creative)\b`)},
	{"coding", -3, re(`\b(code|function|method|compile|debug|stack trace|python|javascript|typescript|golang|rust|sql|regex|api endpoint|unit test|refactor)\b`)},
	{"pure-math", -3, re(`\b(calculate|solve|equation|integral|derivative|factorial|probability of|simplify|arithmetic)\b`)},
	{"greeting", -5, re(`^\s*(hi|hello|hey|yo|thanks|thank you|good (morning|afternoon|evening)|how are you)\b`)},
}

func re(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + pattern)
}

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = re(p)
	}
	return out
}

// Score accumulates the signed weights of every matching pattern
// family. Case-insensitive except for named-entity detection, which
// relies on capitalization.
func Score(query string) int {
	var total int
	for _, family := range scoreFamilies {
		if family.name == "named-entity" {
			// The (?i) prefix would defeat the capitalization check.
			if namedEntityPattern.MatchString(query) {
				total += family.weight
			}
			continue
		}
		if family.pattern.MatchString(query) {
			total += family.weight
		}
	}
	return total
}

var namedEntityPattern = regexp.MustCompile(`\b[A-Z][a-z]+ [A-Z][a-z]+\b`)

// ShouldSearch applies the trigger decision: the caller directive wins,
// explicit opt-out/opt-in phrasing short-circuits, and otherwise the
// weighted score decides. Queries under the minimum length never
// trigger on a non-positive score.
func ShouldSearch(query string, directive Directive) bool {
	switch directive {
	case DirectiveAlways:
		return true
	case DirectiveOff:
		return false
	}

	lower := strings.ToLower(query)
	for _, p := range optOutPatterns {
		if p.MatchString(lower) {
			return false
		}
	}
	for _, p := range optInPatterns {
		if p.MatchString(lower) {
			return true
		}
	}

	score := Score(query)
	if len(query) < minQueryChars && score <= 0 {
		return false
	}
	return score >= triggerThreshold
}
