package scoreboard

import (
	"strconv"

	"github.com/programme-lv/autoprogcomp/codeforces"
)

// Derived holds the scores rule evaluators attach to a record.
// PointsWithCoupon is provisional until a coupon promotes it into Points.
type Derived struct {
	Points           *int
	PointsWithCoupon *int
}

// Record is a submission as stored in the state, with its derived scores.
type Record struct {
	codeforces.Submission
	Derived Derived
}

// NewRecord wraps a fetched submission with no derived scores.
func NewRecord(sub codeforces.Submission) *Record {
	return &Record{Submission: sub}
}

// ContestKey is the state key of the record's contest, "" for contest-less submissions.
func (r *Record) ContestKey() string {
	if r.ContestID == nil {
		return ""
	}
	return strconv.Itoa(*r.ContestID)
}

func (r *Record) clone() *Record {
	c := *r
	c.Derived = Derived{
		Points:           copyInt(r.Derived.Points),
		PointsWithCoupon: copyInt(r.Derived.PointsWithCoupon),
	}
	return &c
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// ContestState keeps the surviving record of every problem in one contest.
type ContestState struct {
	// RatedName is the contest name from the participant's rating history, nil when unknown.
	RatedName *string

	indices []string
	byIndex map[string]*Record
}

func newContestState() *ContestState {
	return &ContestState{byIndex: map[string]*Record{}}
}

func (c *ContestState) Get(index string) *Record {
	return c.byIndex[index]
}

// Records returns the stored records in first-insertion order of their problem index.
func (c *ContestState) Records() []*Record {
	res := make([]*Record, 0, len(c.indices))
	for _, index := range c.indices {
		res = append(res, c.byIndex[index])
	}
	return res
}

func (c *ContestState) set(index string, rec *Record) {
	if _, ok := c.byIndex[index]; !ok {
		c.indices = append(c.indices, index)
	}
	c.byIndex[index] = rec
}

// ParticipantState holds one participant's contests and coupon counts.
type ParticipantState struct {
	AvailableCoupons int
	UsedCoupons      int

	contestIDs []string
	byContest  map[string]*ContestState
}

func newParticipantState() *ParticipantState {
	return &ParticipantState{byContest: map[string]*ContestState{}}
}

// Contest returns the state of a contest or nil if the participant has none.
func (p *ParticipantState) Contest(contestID string) *ContestState {
	return p.byContest[contestID]
}

// ContestIDs lists the known contests in first-reference order.
func (p *ParticipantState) ContestIDs() []string {
	return p.contestIDs
}

func (p *ParticipantState) contestOrInsert(contestID string) *ContestState {
	contest, ok := p.byContest[contestID]
	if !ok {
		contest = newContestState()
		p.byContest[contestID] = contest
		p.contestIDs = append(p.contestIDs, contestID)
	}
	return contest
}

func (p *ParticipantState) allRecords() []*Record {
	var res []*Record
	for _, id := range p.contestIDs {
		res = append(res, p.byContest[id].Records()...)
	}
	return res
}

// Insert stores rec in its (contest, problem) slot when it outranks the record
// already there. On equal priority the stored record is kept, so among records
// of the same class the one inserted first survives. The contest is registered
// even when rec is rejected. Reports whether rec was stored.
func (p *ParticipantState) Insert(rec *Record, tf Timeframe) bool {
	contest := p.contestOrInsert(rec.ContestKey())
	prev := contest.Get(rec.Problem.Index)
	if Priority(rec, tf) <= Priority(prev, tf) {
		return false
	}
	contest.set(rec.Problem.Index, rec)
	return true
}

// State is the scoreboard of one run: participants in sheet row order.
type State struct {
	rows     []string
	handles  []string
	byHandle map[string]*ParticipantState
}

func NewState(rows []string) *State {
	s := &State{
		rows:     rows,
		byHandle: map[string]*ParticipantState{},
	}
	for _, handle := range rows {
		if _, ok := s.byHandle[handle]; ok {
			continue
		}
		s.byHandle[handle] = newParticipantState()
		s.handles = append(s.handles, handle)
	}
	return s
}

// Rows returns the participant of every sheet row, duplicates included.
func (s *State) Rows() []string {
	return s.rows
}

// Handles returns the distinct participants in order of first appearance.
func (s *State) Handles() []string {
	return s.handles
}

// Participant returns nil for handles that are not on the sheet.
func (s *State) Participant(handle string) *ParticipantState {
	return s.byHandle[handle]
}

// renderRows evaluates fn for every sheet row.
func (s *State) renderRows(fn func(p *ParticipantState) Value) Column {
	col := Column{Values: make([]Value, len(s.rows))}
	for i, handle := range s.rows {
		col.Values[i] = fn(s.byHandle[handle])
	}
	return col
}
