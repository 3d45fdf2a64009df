package scoreboard_test

import (
	"testing"
	"time"

	"github.com/programme-lv/autoprogcomp/scoreboard"
	"github.com/programme-lv/autoprogcomp/srvcerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func patterns(m scoreboard.PointMapping) []string {
	var res []string
	for _, pp := range m.Points {
		res = append(res, pp.Pattern.String())
	}
	return res
}

func TestParseContestJSON(t *testing.T) {
	reg, err := scoreboard.Parse([]string{`contest:{"id":"1234","points":{"A":10,"B":20}}`, timeframe}, time.UTC)
	require.NoError(t, err)

	require.Len(t, reg.Contests, 1)
	rule := reg.Contests[0]
	assert.Equal(t, "1234", rule.ContestID)
	require.Len(t, rule.Mappings, 1)
	assert.Nil(t, rule.Mappings[0].Window)
	assert.Nil(t, rule.Mappings[0].Teams)
	assert.Equal(t, []string{"(?i)^(?:A)$", "(?i)^(?:B)$"}, patterns(rule.Mappings[0]))
	assert.Equal(t, 20, rule.Mappings[0].Points[1].Points)
}

func TestParseCompactJSON5(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantID    string
		wantGroup string
		wantStart time.Time
	}{
		{"unquoted keys", `{id:1234,points:{A:10,B:20}}`, "1234", "", time.Time{}},
		{"quoted id", `{id:"1",points:{A:10}}`, "1", "", time.Time{}},
		{"single quotes and trailing comma", `{id:'7',points:{'A':10,},}`, "7", "", time.Time{}},
		{"group and time", `{group:"G", time:"2024-01-01T00:00:00", points:{A:1}}`, "", "G", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"plain instant value", `{group:G,time:2024-01-01T00:00:00,points:{A:1}}`, "", "G", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := scoreboard.Parse([]string{"contest:" + tt.payload, timeframe}, time.UTC)
			require.NoError(t, err)
			rule := reg.Contests[0]
			assert.Equal(t, tt.wantID, rule.ContestID)
			assert.Equal(t, tt.wantGroup, rule.Group)
			assert.True(t, tt.wantStart.Equal(rule.Start), "start %s", rule.Start)
			require.NotEmpty(t, rule.Mappings)
			assert.Equal(t, "(?i)^(?:A)$", rule.Mappings[0].Points[0].Pattern.String())
		})
	}
}

func TestParseCompactMappingList(t *testing.T) {
	cmd := `contest:{id:"7",points:[{range:[0,120],teams:[['alice','bob']],points:{A:1,"B|C":2}}]}`
	reg, err := scoreboard.Parse([]string{cmd, timeframe}, time.UTC)
	require.NoError(t, err)

	m := reg.Contests[0].Mappings[0]
	assert.Equal(t, &scoreboard.Window{StartMinute: 0, EndMinute: 120}, m.Window)
	assert.Equal(t, [][]string{{"alice", "bob"}}, m.Teams)
	assert.Equal(t, []string{"(?i)^(?:A)$", "(?i)^(?:B|C)$"}, patterns(m))
	assert.Equal(t, 2, m.Points[1].Points)
}

func TestParseContestKeepsPatternOrder(t *testing.T) {
	reg, err := scoreboard.Parse([]string{`contest:{id: 1, points: {B: 2, A: 1, '[C-E]': 3}}`, timeframe}, time.UTC)
	require.NoError(t, err)

	m := reg.Contests[0].Mappings[0]
	assert.Equal(t, []string{"(?i)^(?:B)$", "(?i)^(?:A)$", "(?i)^(?:[C-E])$"}, patterns(m))
	assert.True(t, m.Points[2].Pattern.MatchString("d"))
	assert.False(t, m.Points[2].Pattern.MatchString("D1"))
}

func TestParseContestMappingList(t *testing.T) {
	cmd := `contest:{id: "7", points: [{range: [0, 120], teams: [[alice, bob], [carol]], points: {A: 1}}, {points: {B: 2}}]}`
	reg, err := scoreboard.Parse([]string{cmd, timeframe}, time.UTC)
	require.NoError(t, err)

	mappings := reg.Contests[0].Mappings
	require.Len(t, mappings, 2)
	assert.Equal(t, &scoreboard.Window{StartMinute: 0, EndMinute: 120}, mappings[0].Window)
	assert.Equal(t, [][]string{{"alice", "bob"}, {"carol"}}, mappings[0].Teams)
	assert.Nil(t, mappings[1].Window)
	assert.Nil(t, mappings[1].Teams)
}

func TestParseGroupSelector(t *testing.T) {
	riga := time.FixedZone("EET", 2*60*60)
	tests := []struct {
		name      string
		payload   string
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "single instant means one day",
			payload:   `{group: abc, time: "2024-03-01T10:00:00", points: {A: 1}}`,
			wantStart: time.Date(2024, 3, 1, 10, 0, 0, 0, riga),
			wantEnd:   time.Date(2024, 3, 2, 10, 0, 0, 0, riga),
		},
		{
			name:      "pair with offsets",
			payload:   `{group: abc, time: ["2024-03-01T00:00:00Z", "2024-03-08"], points: {A: 1}}`,
			wantStart: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 3, 8, 0, 0, 0, 0, riga),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := scoreboard.Parse([]string{"contest:" + tt.payload, timeframe}, riga)
			require.NoError(t, err)
			rule := reg.Contests[0]
			assert.Equal(t, "abc", rule.Group)
			assert.Empty(t, rule.ContestID)
			assert.True(t, tt.wantStart.Equal(rule.Start), "start %s", rule.Start)
			assert.True(t, tt.wantEnd.Equal(rule.End), "end %s", rule.End)
		})
	}
}

func TestParseRejectsBadContestPayloads(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		cause   string
	}{
		{"id with group", `{id: "1", group: g, points: {A: 1}}`, "id field is incompatible with group and time"},
		{"id with time", `{id: "1", time: "2024-01-01", points: {A: 1}}`, "id field is incompatible with group and time"},
		{"group without time", `{group: g, points: {A: 1}}`, "group field requires time field to be present"},
		{"no selector", `{points: {A: 1}}`, "expected either id field or group field to be set"},
		{"long id", `{id: "1234567890123", points: {A: 1}}`, "at most 12 characters"},
		{"non numeric id", `{id: "12a", points: {A: 1}}`, "does not match"},
		{"symbols in group", `{group: "a-b", time: "2024-01-01", points: {A: 1}}`, "does not match"},
		{"bad pattern", `{id: "1", points: {"(": 1}}`, "pattern"},
		{"non integer points", `{id: "1", points: {A: ten}}`, "must be an integer"},
		{"missing points", `{id: "1"}`, "points field is required"},
		{"bad range", `{id: "1", points: [{range: [1], points: {A: 1}}]}`, "range"},
		{"bad time", `{group: g, time: "soon", points: {A: 1}}`, "time"},
		{"unknown field", `{id: "1", pts: {A: 1}, points: {A: 1}}`, "unknown field"},
		{"unknown null field", `{id: "1", pts: ~, points: {A: 1}}`, "unknown field"},
		{"unknown null field compact", `{id:"1",pts:null,points:{A:1}}`, "unknown field"},
		{"unknown null mapping field", `{id: "1", points: [{pts: null, points: {A: 1}}]}`, "unknown field"},
		{"null id", `{id: , group: g, points: {A: 1}}`, "group field requires time field to be present"},
		{"not an object", `[1, 2]`, "expected an object"},
		{"broken syntax", `{id: "1", points: {A: 1}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := "contest:" + tt.payload
			_, err := scoreboard.Parse([]string{raw, timeframe}, time.UTC)
			require.Error(t, err)
			assert.True(t, srvcerror.HasCode(err, scoreboard.ErrCodeInvalidCommand))
			assert.Contains(t, err.Error(), `failed to parse contest command "`+raw+`"`)
			assert.Contains(t, err.Error(), tt.cause)
		})
	}
}

func TestParseSingletonRules(t *testing.T) {
	tests := []struct {
		name     string
		commands []string
		wantMsg  string
	}{
		{"second coupons", []string{"coupons:1", "coupons:2", timeframe}, "at most 1 coupons command can be specified"},
		{"second timeframe", []string{timeframe, timeframe}, "exactly 1 timeframe command must be specified"},
		{"no timeframe", []string{"coupons:1"}, "a timeframe command must be provided"},
		{"no commands", nil, "a timeframe command must be provided"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := scoreboard.Parse(tt.commands, time.UTC)
			require.Error(t, err)
			assert.EqualError(t, err, tt.wantMsg)
		})
	}
}

func TestParseSimpleRules(t *testing.T) {
	reg, err := scoreboard.Parse([]string{"lang:GNU C++", "coupons:3", `rounds:Codeforces Round \d+ \(Div\. 2\)`, timeframe}, time.UTC)
	require.NoError(t, err)

	require.Len(t, reg.Rules, 4)
	require.Len(t, reg.Langs, 1)
	assert.Equal(t, "gnu c++", reg.Langs[0].Lang)
	require.NotNil(t, reg.Coupons)
	assert.Equal(t, 3, reg.Coupons.Available)
	require.Len(t, reg.Rounds, 1)
	assert.True(t, reg.Rounds[0].Pattern.MatchString("Codeforces Round 900 (Div. 2)"))
	assert.False(t, reg.Rounds[0].Pattern.MatchString("Codeforces Round 900 (Div. 2) extra"))
	assert.False(t, reg.Rounds[0].Pattern.MatchString("codeforces round 900 (div. 2)"))
	for i, rule := range reg.Rules {
		assert.Equal(t, []string{"lang:GNU C++", "coupons:3", `rounds:Codeforces Round \d+ \(Div\. 2\)`, timeframe}[i], rule.Command())
	}
}

func TestParseRejectsUnusableArguments(t *testing.T) {
	for _, raw := range []string{"rounds:(", "timeframe:yesterday:today", "coupons:99999999999999999999"} {
		t.Run(raw, func(t *testing.T) {
			_, err := scoreboard.Parse([]string{raw, timeframe}, time.UTC)
			require.Error(t, err)
			assert.True(t, srvcerror.HasCode(err, scoreboard.ErrCodeInvalidCommand))
			assert.Contains(t, err.Error(), "invalid command '"+raw+"'")
		})
	}
}

func TestParseUnrecognized(t *testing.T) {
	for _, raw := range []string{"frobnicate:1", "coupons:x", "timeframe:2024-01-01T00:00:2024-01-02", "contest:", "LANG:c"} {
		t.Run(raw, func(t *testing.T) {
			_, err := scoreboard.Parse([]string{timeframe, raw}, time.UTC)
			require.Error(t, err)
			assert.EqualError(t, err, "unrecognized command '"+raw+"'")
		})
	}
}

func TestParseTimeframeInLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	reg, err := scoreboard.Parse([]string{"timeframe:2024-01-01T0000:20240102T120000Z"}, loc)
	require.NoError(t, err)

	assert.True(t, time.Date(2023, 12, 31, 22, 0, 0, 0, time.UTC).Equal(reg.Timeframe.Start))
	assert.True(t, time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC).Equal(reg.Timeframe.End))
}

func TestParseInstantLayouts(t *testing.T) {
	want := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	for _, s := range []string{
		"2024-05-06T07:08:09Z",
		"2024-05-06T09:08:09+02:00",
		"2024-05-06T07:08:09",
		"2024-05-06 07:08:09",
		"2024-05-06T070809",
		"20240506T070809",
		"20240506T090809+0200",
	} {
		t.Run(s, func(t *testing.T) {
			got, err := scoreboard.ParseInstant(s, time.UTC)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %s", got)
		})
	}
}
