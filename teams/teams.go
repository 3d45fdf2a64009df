// Package teams turns a pasted team roster into the teams literal of a contest command.
package teams

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Parse reads one handle per line. Blank lines and lines containing ':'
// (team titles) close the current team. Lines with spaces keep their last word.
func Parse(r io.Reader) ([][]string, error) {
	teams := [][]string{nil}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.Contains(line, ":") {
			line = ""
		} else if fields := strings.Fields(line); len(fields) > 1 {
			line = fields[len(fields)-1]
		}
		last := len(teams) - 1
		if line == "" {
			if len(teams[last]) > 0 {
				teams = append(teams, nil)
			}
			continue
		}
		teams[last] = append(teams[last], line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read roster: %w", err)
	}
	if len(teams[len(teams)-1]) == 0 {
		teams = teams[:len(teams)-1]
	}
	return teams, nil
}

// Format renders teams as [['a','b'],['c']].
func Format(teams [][]string) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, team := range teams {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('[')
		for j, member := range team {
			if j > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString("'" + member + "'")
		}
		sb.WriteByte(']')
	}
	sb.WriteByte(']')
	return sb.String()
}
