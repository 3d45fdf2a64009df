package scoreboard_test

import (
	"context"

	"github.com/programme-lv/autoprogcomp/codeforces"
)

const (
	timeframe = "timeframe:2024-01-01:2024-12-31"
	// 2024-03-09, inside the timeframe above.
	inWindow = int64(1710000000)
)

var nextID int64

func submission(handle string, contestID int, index string, verdict codeforces.Verdict, kind codeforces.ParticipantType) codeforces.Submission {
	nextID++
	cid := contestID
	created := inWindow
	relative := int64(10 * 60)
	return codeforces.Submission{
		ID:                  nextID,
		ContestID:           &cid,
		CreationTimeSeconds: &created,
		RelativeTimeSeconds: &relative,
		Problem:             codeforces.Problem{ContestID: &cid, Index: index},
		Author: codeforces.Party{
			ContestID:       &cid,
			Members:         []codeforces.Member{{Handle: handle}},
			ParticipantType: kind,
		},
		ProgrammingLanguage: "GNU C++17",
		Verdict:             verdict,
	}
}

func accepted(handle string, contestID int, index string) codeforces.Submission {
	return submission(handle, contestID, index, codeforces.VerdictOK, codeforces.ParticipantContestant)
}

func practice(handle string, contestID int, index string) codeforces.Submission {
	return submission(handle, contestID, index, codeforces.VerdictOK, codeforces.ParticipantPractice)
}

func rejected(handle string, contestID int, index string) codeforces.Submission {
	return submission(handle, contestID, index, codeforces.VerdictWrongAnswer, codeforces.ParticipantContestant)
}

func withCreated(sub codeforces.Submission, created *int64) codeforces.Submission {
	sub.CreationTimeSeconds = created
	return sub
}

func atMinute(sub codeforces.Submission, minute int64) codeforces.Submission {
	rel := minute * 60
	sub.RelativeTimeSeconds = &rel
	return sub
}

func withLang(sub codeforces.Submission, lang string) codeforces.Submission {
	sub.ProgrammingLanguage = lang
	return sub
}

type fakeFetcher struct {
	userStatus    map[string][]codeforces.Submission
	contestStatus map[string][]codeforces.Submission
	contestErr    map[string]error
	ratings       map[string][]codeforces.RatingChange
	contests      map[string][]codeforces.Contest

	calls []string
}

func (f *fakeFetcher) UserStatus(_ context.Context, handle string) ([]codeforces.Submission, error) {
	f.calls = append(f.calls, "user.status:"+handle)
	return f.userStatus[handle], nil
}

func (f *fakeFetcher) ContestStatus(_ context.Context, contestID string) ([]codeforces.Submission, error) {
	f.calls = append(f.calls, "contest.status:"+contestID)
	if err := f.contestErr[contestID]; err != nil {
		return nil, err
	}
	return f.contestStatus[contestID], nil
}

func (f *fakeFetcher) UserRating(_ context.Context, handle string) ([]codeforces.RatingChange, error) {
	f.calls = append(f.calls, "user.rating:"+handle)
	return f.ratings[handle], nil
}

func (f *fakeFetcher) ContestList(_ context.Context, groupCode string) ([]codeforces.Contest, error) {
	f.calls = append(f.calls, "contest.list:"+groupCode)
	return f.contests[groupCode], nil
}
