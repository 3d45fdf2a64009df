// Package scoreboard interprets the header commands of a scoreboard sheet and
// computes one column per command from Codeforces data.
//
// A run parses every command first, so a bad header fails before anything is
// fetched. It then merges the submissions of every participant into a fresh
// State, keeping one record per (contest, problem) slot by Priority, and runs
// the rule passes in a fixed order: team sharing, points, coupons, rendering.
package scoreboard

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/programme-lv/autoprogcomp/codeforces"
	"github.com/programme-lv/autoprogcomp/logger"
	"github.com/programme-lv/autoprogcomp/srvcerror"
)

// Fetcher is the part of the Codeforces API a run reads.
// Submission lists are expected newest first, as Codeforces returns them.
type Fetcher interface {
	UserStatus(ctx context.Context, handle string) ([]codeforces.Submission, error)
	ContestStatus(ctx context.Context, contestID string) ([]codeforces.Submission, error)
	UserRating(ctx context.Context, handle string) ([]codeforces.RatingChange, error)
	ContestList(ctx context.Context, groupCode string) ([]codeforces.Contest, error)
}

type Scoreboard struct {
	fetcher Fetcher
	loc     *time.Location
}

func New(fetcher Fetcher, loc *time.Location) *Scoreboard {
	if loc == nil {
		loc = time.UTC
	}
	return &Scoreboard{fetcher: fetcher, loc: loc}
}

// Compute returns one column per command, each aligned with handles.
func (sb *Scoreboard) Compute(ctx context.Context, commands []string, handles []string) ([]Column, error) {
	reg, err := Parse(commands, sb.loc)
	if err != nil {
		return nil, err
	}
	if err := reg.Resolve(ctx, sb.fetcher); err != nil {
		return nil, err
	}
	state := NewState(handles)
	tf := reg.Timeframe.Timeframe

	if err := sb.mergeUserSubmissions(ctx, state, tf); err != nil {
		return nil, err
	}
	if err := sb.mergeContestSubmissions(ctx, state, tf, reg.Contests); err != nil {
		return nil, err
	}
	if len(reg.Rounds) > 0 {
		if err := sb.loadRatedNames(ctx, state); err != nil {
			return nil, err
		}
	}

	for _, rule := range reg.Contests {
		rule.ShareTeamSubmissions(state, tf)
	}
	for _, rule := range reg.Contests {
		rule.ComputePoints(state)
	}
	if reg.Coupons != nil {
		reg.Coupons.ApplyCoupons(state)
	}

	columns := make([]Column, len(reg.Rules))
	for i, rule := range reg.Rules {
		columns[i] = rule.Render(state)
	}
	return columns, nil
}

func (sb *Scoreboard) mergeUserSubmissions(ctx context.Context, state *State, tf Timeframe) error {
	for _, handle := range state.Handles() {
		subs, err := sb.fetcher.UserStatus(ctx, handle)
		if err != nil {
			return fmt.Errorf("failed to fetch submissions of %s: %w", handle, err)
		}
		p := state.Participant(handle)
		for _, sub := range subs {
			p.Insert(NewRecord(sub), tf)
		}
	}
	return nil
}

// mergeContestSubmissions fetches the contests no participant has touched.
// Only single-author submissions of sheet participants are merged.
func (sb *Scoreboard) mergeContestSubmissions(ctx context.Context, state *State, tf Timeframe, rules []*ContestRule) error {
	seen := map[string]bool{}
	for _, handle := range state.Handles() {
		for _, id := range state.Participant(handle).ContestIDs() {
			seen[id] = true
		}
	}

	log := logger.FromContext(ctx)
	for _, rule := range rules {
		if seen[rule.ContestID] {
			continue
		}
		seen[rule.ContestID] = true

		subs, err := sb.fetcher.ContestStatus(ctx, rule.ContestID)
		if srvcerror.HasCode(err, codeforces.ErrCodeContestNotStarted) {
			log.Warn().Err(err).Str("contest_id", rule.ContestID).Msg("contest has not started, skipping")
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to fetch submissions of contest %s: %w", rule.ContestID, err)
		}
		for _, sub := range subs {
			if len(sub.Author.Members) != 1 {
				continue
			}
			if p := state.Participant(sub.Author.Members[0].Handle); p != nil {
				p.Insert(NewRecord(sub), tf)
			}
		}
	}
	return nil
}

func (sb *Scoreboard) loadRatedNames(ctx context.Context, state *State) error {
	for _, handle := range state.Handles() {
		changes, err := sb.fetcher.UserRating(ctx, handle)
		if err != nil {
			return fmt.Errorf("failed to fetch rating changes of %s: %w", handle, err)
		}
		p := state.Participant(handle)
		for _, change := range changes {
			name := change.ContestName
			p.contestOrInsert(strconv.Itoa(change.ContestID)).RatedName = &name
		}
	}
	return nil
}
