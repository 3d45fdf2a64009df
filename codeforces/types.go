package codeforces

// Verdict is the judge's classification of a submission. Empty while the submission is queued.
type Verdict string

const (
	VerdictOK                  Verdict = "OK"
	VerdictFailed              Verdict = "FAILED"
	VerdictPartial             Verdict = "PARTIAL"
	VerdictCompilationError    Verdict = "COMPILATION_ERROR"
	VerdictRuntimeError        Verdict = "RUNTIME_ERROR"
	VerdictWrongAnswer         Verdict = "WRONG_ANSWER"
	VerdictTimeLimitExceeded   Verdict = "TIME_LIMIT_EXCEEDED"
	VerdictMemoryLimitExceeded Verdict = "MEMORY_LIMIT_EXCEEDED"
	VerdictTesting             Verdict = "TESTING"
	VerdictRejected            Verdict = "REJECTED"
	VerdictSkipped             Verdict = "SKIPPED"
	VerdictChallenged          Verdict = "CHALLENGED"
)

type ParticipantType string

const (
	ParticipantContestant       ParticipantType = "CONTESTANT"
	ParticipantPractice         ParticipantType = "PRACTICE"
	ParticipantVirtual          ParticipantType = "VIRTUAL"
	ParticipantManager          ParticipantType = "MANAGER"
	ParticipantOutOfCompetition ParticipantType = "OUT_OF_COMPETITION"
)

type Problem struct {
	ContestID      *int     `json:"contestId,omitempty"`
	ProblemsetName *string  `json:"problemsetName,omitempty"`
	Index          string   `json:"index"`
	Name           string   `json:"name"`
	Type           string   `json:"type"`
	Points         *float64 `json:"points,omitempty"`
	Rating         *int     `json:"rating,omitempty"`
	Tags           []string `json:"tags"`
}

type Member struct {
	Handle string  `json:"handle"`
	Name   *string `json:"name,omitempty"`
}

// Party is the author of a submission: a single user or a team.
type Party struct {
	ContestID        *int            `json:"contestId,omitempty"`
	Members          []Member        `json:"members"`
	ParticipantType  ParticipantType `json:"participantType"`
	TeamID           *int            `json:"teamId,omitempty"`
	TeamName         *string         `json:"teamName,omitempty"`
	Ghost            bool            `json:"ghost"`
	Room             *int            `json:"room,omitempty"`
	StartTimeSeconds *int64          `json:"startTimeSeconds,omitempty"`
}

type Submission struct {
	ID                  int64    `json:"id"`
	ContestID           *int     `json:"contestId,omitempty"`
	CreationTimeSeconds *int64   `json:"creationTimeSeconds,omitempty"`
	RelativeTimeSeconds *int64   `json:"relativeTimeSeconds,omitempty"`
	Problem             Problem  `json:"problem"`
	Author              Party    `json:"author"`
	ProgrammingLanguage string   `json:"programmingLanguage"`
	Verdict             Verdict  `json:"verdict,omitempty"`
	Testset             string   `json:"testset"`
	PassedTestCount     int      `json:"passedTestCount"`
	TimeConsumedMillis  int      `json:"timeConsumedMillis"`
	MemoryConsumedBytes int64    `json:"memoryConsumedBytes"`
	Points              *float64 `json:"points,omitempty"`
}

// Accepted reports whether the submission passed.
func (s *Submission) Accepted() bool {
	return s.Verdict == VerdictOK
}

// InContest reports whether the submission was made as an official contestant.
func (s *Submission) InContest() bool {
	return s.Author.ParticipantType == ParticipantContestant
}

type RatingChange struct {
	ContestID               int    `json:"contestId"`
	ContestName             string `json:"contestName"`
	Handle                  string `json:"handle"`
	Rank                    int    `json:"rank"`
	RatingUpdateTimeSeconds int64  `json:"ratingUpdateTimeSeconds"`
	OldRating               int    `json:"oldRating"`
	NewRating               int    `json:"newRating"`
}

type Contest struct {
	ID                    int     `json:"id"`
	Name                  string  `json:"name"`
	Type                  string  `json:"type"`
	Phase                 string  `json:"phase"`
	Frozen                bool    `json:"frozen"`
	DurationSeconds       int64   `json:"durationSeconds"`
	FreezeDurationSeconds *int64  `json:"freezeDurationSeconds,omitempty"`
	StartTimeSeconds      *int64  `json:"startTimeSeconds,omitempty"`
	RelativeTimeSeconds   *int64  `json:"relativeTimeSeconds,omitempty"`
	PreparedBy            *string `json:"preparedBy,omitempty"`
	WebsiteURL            *string `json:"websiteUrl,omitempty"`
	Description           *string `json:"description,omitempty"`
	Difficulty            *int    `json:"difficulty,omitempty"`
	Kind                  *string `json:"kind,omitempty"`
	Season                *string `json:"season,omitempty"`
}

type envelope[T any] struct {
	Status  string `json:"status"`
	Comment string `json:"comment"`
	Result  T      `json:"result"`
}
