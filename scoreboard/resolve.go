package scoreboard

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/programme-lv/autoprogcomp/logger"
)

// Resolve replaces group selectors with contest ids. The contest list of a
// group is fetched once. A selector that matches no contest turns its rule
// into an empty column and is logged, it does not fail the run.
func (r *Registry) Resolve(ctx context.Context, fetcher Fetcher) error {
	resolved := make([]*ContestRule, 0, len(r.Contests))
	for i, rule := range r.Rules {
		cr, ok := rule.(*ContestRule)
		if !ok {
			continue
		}
		if cr.Group != "" && cr.ContestID == "" {
			id, err := r.contestForGroup(ctx, fetcher, cr.Group, cr.Start, cr.End)
			if err != nil {
				return err
			}
			if id == "" {
				logger.FromContext(ctx).Warn().
					Str("group", cr.Group).
					Time("start", cr.Start).
					Time("end", cr.End).
					Msg("no contest found for group and timerange, skipping")
				r.Rules[i] = unresolvedRule{command: cr.command}
				continue
			}
			cr.ContestID = id
		}
		resolved = append(resolved, cr)
	}
	r.Contests = resolved
	return nil
}

// contestForGroup returns the contest of the group that starts within
// [start, end] closest to start, or "" when there is none.
func (r *Registry) contestForGroup(ctx context.Context, fetcher Fetcher, group string, start, end time.Time) (string, error) {
	contests, ok := r.contestsByGroup[group]
	if !ok {
		var err error
		contests, err = fetcher.ContestList(ctx, group)
		if err != nil {
			return "", fmt.Errorf("failed to list contests of group %s: %w", group, err)
		}
		r.contestsByGroup[group] = contests
	}

	best := ""
	var bestDelta time.Duration
	for _, contest := range contests {
		if contest.StartTimeSeconds == nil {
			continue
		}
		t := time.Unix(*contest.StartTimeSeconds, 0)
		if t.Before(start) || t.After(end) {
			continue
		}
		if delta := t.Sub(start); best == "" || delta < bestDelta {
			best = strconv.Itoa(contest.ID)
			bestDelta = delta
		}
	}
	return best, nil
}
