package scoreboard

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/programme-lv/autoprogcomp/codeforces"
)

// Registry holds the rules parsed from one header row.
type Registry struct {
	// Rules is in column order.
	Rules []Rule

	Contests  []*ContestRule
	Langs     []*LangRule
	Coupons   *CouponRule
	Rounds    []*RoundRule
	Timeframe *TimeframeRule

	loc             *time.Location
	contestsByGroup map[string][]codeforces.Contest
}

type grammar struct {
	pattern *regexp.Regexp
	build   func(r *Registry, raw string, args []string) (Rule, error)
}

var grammars = []grammar{
	{regexp.MustCompile(`^contest:(.+)$`), buildContest},
	{regexp.MustCompile(`^lang:(.+)$`), buildLang},
	{regexp.MustCompile(`^coupons:(\d+)$`), buildCoupons},
	{regexp.MustCompile(`^rounds:(.+)$`), buildRounds},
	{regexp.MustCompile(`^timeframe:([^:]+):([^:]+)$`), buildTimeframe},
}

// Parse turns the header commands into rules. Instants without a UTC offset
// are read in loc. Group selectors stay unresolved until Resolve.
func Parse(commands []string, loc *time.Location) (*Registry, error) {
	if loc == nil {
		loc = time.UTC
	}
	r := &Registry{
		loc:             loc,
		contestsByGroup: map[string][]codeforces.Contest{},
	}
	for _, raw := range commands {
		rule, err := r.parseOne(raw)
		if err != nil {
			return nil, err
		}
		r.Rules = append(r.Rules, rule)
	}
	if r.Timeframe == nil {
		return nil, ErrMissingTimeframe()
	}
	return r, nil
}

func (r *Registry) parseOne(raw string) (Rule, error) {
	for _, g := range grammars {
		m := g.pattern.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		return g.build(r, raw, m[1:])
	}
	return nil, ErrUnrecognizedCommand(raw)
}

func buildContest(r *Registry, raw string, args []string) (Rule, error) {
	rule, err := parseContestPayload(args[0], r.loc)
	if err != nil {
		return nil, ErrInvalidContestCommand(raw, err)
	}
	rule.command = raw
	r.Contests = append(r.Contests, rule)
	return rule, nil
}

func buildLang(r *Registry, raw string, args []string) (Rule, error) {
	rule := &LangRule{command: raw, Lang: strings.ToLower(args[0])}
	r.Langs = append(r.Langs, rule)
	return rule, nil
}

func buildCoupons(r *Registry, raw string, args []string) (Rule, error) {
	if r.Coupons != nil {
		return nil, ErrDuplicateCoupons()
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return nil, ErrInvalidCommand(raw, err)
	}
	r.Coupons = &CouponRule{command: raw, Available: n}
	return r.Coupons, nil
}

func buildRounds(r *Registry, raw string, args []string) (Rule, error) {
	pattern, err := regexp.Compile(`^(?:` + args[0] + `)$`)
	if err != nil {
		return nil, ErrInvalidCommand(raw, err)
	}
	rule := &RoundRule{command: raw, Pattern: pattern}
	r.Rounds = append(r.Rounds, rule)
	return rule, nil
}

func buildTimeframe(r *Registry, raw string, args []string) (Rule, error) {
	if r.Timeframe != nil {
		return nil, ErrDuplicateTimeframe()
	}
	start, err := ParseInstant(args[0], r.loc)
	if err != nil {
		return nil, ErrInvalidCommand(raw, err)
	}
	end, err := ParseInstant(args[1], r.loc)
	if err != nil {
		return nil, ErrInvalidCommand(raw, err)
	}
	r.Timeframe = &TimeframeRule{command: raw, Timeframe: Timeframe{Start: start, End: end}}
	return r.Timeframe, nil
}

var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02T150405Z0700",
	"2006-01-02T150405",
	"2006-01-02T1504",
	"2006-01-02T15",
	"20060102T150405Z0700",
	"20060102T150405",
	"20060102T1504",
	"2006-01-02",
	"20060102",
}

// ParseInstant reads an ISO-8601 instant in extended or basic format.
// Instants without an offset are taken in loc.
func ParseInstant(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range instantLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.In(loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid ISO-8601 instant %q", s)
}
