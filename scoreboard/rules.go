package scoreboard

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Rule is one parsed header command. Every rule renders exactly one column.
// The set of rules is closed; side effects run in the fixed order of Compute.
type Rule interface {
	Command() string
	Render(s *State) Column
	isRule()
}

// PatternPoints awards Points to problem indices fully matching Pattern.
type PatternPoints struct {
	Pattern *regexp.Regexp
	Points  int
}

// Window is an inclusive range of minutes since the contest start.
type Window struct {
	StartMinute int
	EndMinute   int
}

func (w Window) containsSeconds(sec int64) bool {
	return int64(w.StartMinute)*60 <= sec && sec <= int64(w.EndMinute)*60
}

type PointMapping struct {
	// Window limits the mapping to submissions made during part of the contest.
	Window *Window
	// Teams, when not nil, limits the mapping to team members.
	Teams  [][]string
	Points []PatternPoints

	teamsByHandle map[string][][]string
}

// NewPointMapping indexes teams by member handle.
func NewPointMapping(window *Window, teams [][]string, points []PatternPoints) PointMapping {
	m := PointMapping{Window: window, Teams: teams, Points: points}
	if teams != nil {
		m.teamsByHandle = map[string][][]string{}
		for _, team := range teams {
			for _, member := range team {
				m.teamsByHandle[member] = append(m.teamsByHandle[member], team)
			}
		}
	}
	return m
}

func (m *PointMapping) applies(handle string, rec *Record) bool {
	if m.Window != nil {
		if rec.RelativeTimeSeconds == nil || !m.Window.containsSeconds(*rec.RelativeTimeSeconds) {
			return false
		}
	}
	if m.Teams != nil {
		if _, ok := m.teamsByHandle[handle]; !ok {
			return false
		}
	}
	return true
}

// ContestRule scores the problems of one contest.
type ContestRule struct {
	command string

	ContestID string
	// Group, Start and End select the contest when it was given by group and time.
	Group    string
	Start    time.Time
	End      time.Time
	Mappings []PointMapping
}

func (r *ContestRule) Command() string { return r.command }
func (*ContestRule) isRule()           {}

// visit calls fn for every (record, mapping, points) triple of the rule's
// contest where the mapping applies and the pattern matches the problem index.
func (r *ContestRule) visit(s *State, fn func(handle string, rec *Record, m *PointMapping, points int)) {
	for _, handle := range s.Handles() {
		contest := s.Participant(handle).Contest(r.ContestID)
		if contest == nil {
			continue
		}
		for _, rec := range contest.Records() {
			for i := range r.Mappings {
				m := &r.Mappings[i]
				if !m.applies(handle, rec) {
					continue
				}
				for _, pp := range m.Points {
					if pp.Pattern.MatchString(rec.Problem.Index) {
						fn(handle, rec, m, pp.Points)
					}
				}
			}
		}
	}
}

// ShareTeamSubmissions copies every accepted contestant record of a team
// member into the slots of the teammates on the sheet. Copies go through
// Insert, so a teammate's better record stays. Sharing is not transitive.
func (r *ContestRule) ShareTeamSubmissions(s *State, tf Timeframe) {
	type share struct {
		to  *ParticipantState
		rec *Record
	}
	var shares []share
	r.visit(s, func(handle string, rec *Record, m *PointMapping, _ int) {
		if !rec.Accepted() || !rec.InContest() {
			return
		}
		for _, team := range m.teamsByHandle[handle] {
			for _, mate := range team {
				if mate == handle {
					continue
				}
				if p := s.Participant(mate); p != nil {
					shares = append(shares, share{to: p, rec: rec})
				}
			}
		}
	})
	for _, sh := range shares {
		sh.to.Insert(sh.rec.clone(), tf)
	}
}

// ComputePoints raises the derived score of every matching accepted record to
// the best applicable mapping. Contestant records earn Points, the rest earn
// PointsWithCoupon.
func (r *ContestRule) ComputePoints(s *State) {
	r.visit(s, func(_ string, rec *Record, _ *PointMapping, points int) {
		if !rec.Accepted() {
			return
		}
		if rec.InContest() {
			rec.Derived.Points = raise(rec.Derived.Points, points)
		} else {
			rec.Derived.PointsWithCoupon = raise(rec.Derived.PointsWithCoupon, points)
		}
	})
}

func raise(cur *int, v int) *int {
	best := 0
	if cur != nil {
		best = *cur
	}
	best = max(best, v)
	return &best
}

func (r *ContestRule) Render(s *State) Column {
	return s.renderRows(func(p *ParticipantState) Value {
		total := 0
		if contest := p.Contest(r.ContestID); contest != nil {
			for _, rec := range contest.Records() {
				if rec.Derived.Points != nil {
					total += *rec.Derived.Points
				}
			}
		}
		return IntValue(total)
	})
}

// unresolvedRule takes the column of a contest rule whose selector matched no contest.
type unresolvedRule struct {
	command string
}

func (r unresolvedRule) Command() string { return r.command }
func (unresolvedRule) isRule()           {}

func (unresolvedRule) Render(s *State) Column {
	return emptyColumn(len(s.Rows()))
}

// LangRule counts accepted records whose language contains Lang.
type LangRule struct {
	command string
	Lang    string
}

func (r *LangRule) Command() string { return r.command }
func (*LangRule) isRule()           {}

func (r *LangRule) Render(s *State) Column {
	return s.renderRows(func(p *ParticipantState) Value {
		n := 0
		for _, rec := range p.allRecords() {
			if rec.Accepted() && strings.Contains(strings.ToLower(rec.ProgrammingLanguage), r.Lang) {
				n++
			}
		}
		return IntValue(n)
	})
}

type CouponRule struct {
	command   string
	Available int
}

func (r *CouponRule) Command() string { return r.command }
func (*CouponRule) isRule()           {}

// ApplyCoupons promotes the best coupon-eligible records of every participant
// into their points, up to the available coupon count.
func (r *CouponRule) ApplyCoupons(s *State) {
	for _, handle := range s.Handles() {
		p := s.Participant(handle)
		var eligible []*Record
		for _, rec := range p.allRecords() {
			if rec.Derived.PointsWithCoupon != nil {
				eligible = append(eligible, rec)
			}
		}
		sort.SliceStable(eligible, func(i, j int) bool {
			return *eligible[i].Derived.PointsWithCoupon > *eligible[j].Derived.PointsWithCoupon
		})
		p.AvailableCoupons = r.Available
		p.UsedCoupons = min(len(eligible), r.Available)
		for _, rec := range eligible[:p.UsedCoupons] {
			rec.Derived.Points = copyInt(rec.Derived.PointsWithCoupon)
		}
	}
}

func (r *CouponRule) Render(s *State) Column {
	return s.renderRows(func(p *ParticipantState) Value {
		return TextValue(fmt.Sprintf("%d/%d", p.UsedCoupons, p.AvailableCoupons))
	})
}

// RoundRule counts accepted contestant records in rated contests whose name matches Pattern.
type RoundRule struct {
	command string
	Pattern *regexp.Regexp
}

func (r *RoundRule) Command() string { return r.command }
func (*RoundRule) isRule()           {}

func (r *RoundRule) Render(s *State) Column {
	return s.renderRows(func(p *ParticipantState) Value {
		n := 0
		for _, id := range p.ContestIDs() {
			contest := p.Contest(id)
			if contest.RatedName == nil || !r.Pattern.MatchString(*contest.RatedName) {
				continue
			}
			n += countFunc(contest.Records(), func(rec *Record) bool {
				return rec.Accepted() && rec.InContest()
			})
		}
		return IntValue(n)
	})
}

// TimeframeRule sets the window of the run. Its column counts accepted records.
type TimeframeRule struct {
	command string
	Timeframe
}

func (r *TimeframeRule) Command() string { return r.command }
func (*TimeframeRule) isRule()           {}

func (r *TimeframeRule) Render(s *State) Column {
	return s.renderRows(func(p *ParticipantState) Value {
		n := countFunc(p.allRecords(), func(rec *Record) bool { return rec.Accepted() })
		return TextValue(fmt.Sprintf("%d OK submissions", n))
	})
}

func countFunc(recs []*Record, pred func(*Record) bool) int {
	n := 0
	for _, rec := range recs {
		if pred(rec) {
			n++
		}
	}
	return n
}
