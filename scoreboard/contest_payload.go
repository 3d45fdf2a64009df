package scoreboard

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"gopkg.in/yaml.v3"
)

var (
	contestIDPattern = regexp.MustCompile(`^\d+$`)
	groupPattern     = regexp.MustCompile(`^[0-9a-zA-Z]+$`)
)

const maxSelectorLen = 12

// parseContestPayload reads the object of a contest command. The object is
// JSON or JSON5: unquoted keys, single quotes, trailing commas. Key order of
// point tables is kept.
func parseContestPayload(payload string, loc *time.Location) (*ContestRule, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(spaceFlowKeys(payload)), &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, errors.New("expected an object")
	}

	var id, group, timeNode, points *yaml.Node
	fields := doc.Content[0].Content
	for i := 0; i+1 < len(fields); i += 2 {
		key, val := fields[i], fields[i+1]
		var slot **yaml.Node
		switch key.Value {
		case "id":
			slot = &id
		case "group":
			slot = &group
		case "time":
			slot = &timeNode
		case "points":
			slot = &points
		default:
			return nil, fmt.Errorf("unknown field %q", key.Value)
		}
		if !isNull(val) {
			*slot = val
		}
	}

	rule := &ContestRule{}
	switch {
	case id != nil:
		if group != nil || timeNode != nil {
			return nil, errors.New("id field is incompatible with group and time")
		}
		v, err := selector(id, "id", contestIDPattern)
		if err != nil {
			return nil, err
		}
		rule.ContestID = v
	case group != nil:
		if timeNode == nil {
			return nil, errors.New("group field requires time field to be present")
		}
		v, err := selector(group, "group", groupPattern)
		if err != nil {
			return nil, err
		}
		rule.Group = v
		rule.Start, rule.End, err = parseTimeWindow(timeNode, loc)
		if err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("expected either id field or group field to be set")
	}

	if points == nil {
		return nil, errors.New("points field is required")
	}
	mappings, err := parsePoints(points)
	if err != nil {
		return nil, err
	}
	rule.Mappings = mappings
	return rule, nil
}

// spaceFlowKeys puts a space after the colon of every identifier or quoted
// mapping key that lacks one. YAML flow syntax reads `{id:1}` as the single
// scalar "id:1", while JSON5 reads it as a key and a value. Colons inside
// strings, values and other plain keys such as `(?:A|B)` are kept.
func spaceFlowKeys(payload string) string {
	var sb strings.Builder
	var open []byte
	var quote byte
	atKey := false
	keyStart := 0
	for i := 0; i < len(payload); i++ {
		c := payload[i]
		sb.WriteByte(c)
		if quote != 0 {
			switch {
			case c == '\\' && quote == '"' && i+1 < len(payload):
				i++
				sb.WriteByte(payload[i])
			case c == quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '{', '[', ',':
			if c != ',' {
				open = append(open, c)
			}
			atKey = len(open) > 0 && open[len(open)-1] == '{'
			keyStart = sb.Len()
		case '}', ']':
			if len(open) > 0 {
				open = open[:len(open)-1]
			}
			atKey = false
		case ':':
			if !atKey {
				continue
			}
			if i+1 == len(payload) || unicode.IsSpace(rune(payload[i+1])) {
				atKey = false
				continue
			}
			key := strings.TrimSpace(sb.String()[keyStart : sb.Len()-1])
			if isIdentifier(key) || strings.HasPrefix(key, `"`) || strings.HasPrefix(key, "'") {
				sb.WriteByte(' ')
				atKey = false
			}
		}
	}
	return sb.String()
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r != '_' && r != '$' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}

func scalar(n *yaml.Node, field string) (string, error) {
	if n.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("%s: expected a string", field)
	}
	return n.Value, nil
}

func selector(n *yaml.Node, field string, pattern *regexp.Regexp) (string, error) {
	v, err := scalar(n, field)
	if err != nil {
		return "", err
	}
	if len(v) > maxSelectorLen {
		return "", fmt.Errorf("%s: at most %d characters allowed", field, maxSelectorLen)
	}
	if !pattern.MatchString(v) {
		return "", fmt.Errorf("%s: %q does not match %s", field, v, pattern)
	}
	return v, nil
}

// parseTimeWindow accepts a single instant, meaning the day that follows it, or a [start, end] pair.
func parseTimeWindow(n *yaml.Node, loc *time.Location) (time.Time, time.Time, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		start, err := ParseInstant(n.Value, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("time: %w", err)
		}
		return start, start.AddDate(0, 0, 1), nil
	case yaml.SequenceNode:
		if len(n.Content) != 2 {
			return time.Time{}, time.Time{}, errors.New("time: expected [start, end]")
		}
		var bounds [2]time.Time
		for i, item := range n.Content {
			v, err := scalar(item, "time")
			if err != nil {
				return time.Time{}, time.Time{}, err
			}
			if bounds[i], err = ParseInstant(v, loc); err != nil {
				return time.Time{}, time.Time{}, fmt.Errorf("time: %w", err)
			}
		}
		return bounds[0], bounds[1], nil
	default:
		return time.Time{}, time.Time{}, errors.New("time: expected an instant or [start, end]")
	}
}

func parsePoints(n *yaml.Node) ([]PointMapping, error) {
	switch n.Kind {
	case yaml.MappingNode:
		table, err := parsePointTable(n)
		if err != nil {
			return nil, err
		}
		return []PointMapping{NewPointMapping(nil, nil, table)}, nil
	case yaml.SequenceNode:
		mappings := make([]PointMapping, 0, len(n.Content))
		for i, item := range n.Content {
			m, err := parsePointMapping(item)
			if err != nil {
				return nil, fmt.Errorf("points[%d]: %w", i, err)
			}
			mappings = append(mappings, m)
		}
		return mappings, nil
	default:
		return nil, errors.New("points: expected an object or a list")
	}
}

func parsePointMapping(n *yaml.Node) (PointMapping, error) {
	if n.Kind != yaml.MappingNode {
		return PointMapping{}, errors.New("expected an object")
	}
	var window *Window
	var teams [][]string
	var table []PatternPoints
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		switch key.Value {
		case "range", "teams", "points":
		default:
			return PointMapping{}, fmt.Errorf("unknown field %q", key.Value)
		}
		if isNull(val) {
			continue
		}
		var err error
		switch key.Value {
		case "range":
			window, err = parseWindow(val)
		case "teams":
			teams, err = parseTeams(val)
		case "points":
			table, err = parsePointTable(val)
		}
		if err != nil {
			return PointMapping{}, err
		}
	}
	if table == nil {
		return PointMapping{}, errors.New("points field is required")
	}
	return NewPointMapping(window, teams, table), nil
}

func parseWindow(n *yaml.Node) (*Window, error) {
	var bounds []int
	if err := n.Decode(&bounds); err != nil || len(bounds) != 2 {
		return nil, errors.New("range: expected [startMinute, endMinute]")
	}
	return &Window{StartMinute: bounds[0], EndMinute: bounds[1]}, nil
}

func parseTeams(n *yaml.Node) ([][]string, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, errors.New("teams: expected a list of teams")
	}
	teams := make([][]string, 0, len(n.Content))
	for _, teamNode := range n.Content {
		if teamNode.Kind != yaml.SequenceNode {
			return nil, errors.New("teams: expected every team to be a list of handles")
		}
		team := make([]string, 0, len(teamNode.Content))
		for _, member := range teamNode.Content {
			handle, err := scalar(member, "teams")
			if err != nil {
				return nil, err
			}
			team = append(team, handle)
		}
		teams = append(teams, team)
	}
	return teams, nil
}

// parsePointTable reads a pattern -> points object. Patterns match the whole problem index, ignoring case.
func parsePointTable(n *yaml.Node) ([]PatternPoints, error) {
	if n.Kind != yaml.MappingNode {
		return nil, errors.New("points: expected an object")
	}
	table := make([]PatternPoints, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		pattern, err := regexp.Compile(`(?i)^(?:` + key.Value + `)$`)
		if err != nil {
			return nil, fmt.Errorf("points: pattern %q: %w", key.Value, err)
		}
		var points int
		if err := val.Decode(&points); err != nil {
			return nil, fmt.Errorf("points: value of %q must be an integer", key.Value)
		}
		table = append(table, PatternPoints{Pattern: pattern, Points: points})
	}
	return table, nil
}
