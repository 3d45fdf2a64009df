package sheet

import (
	"fmt"
	"strconv"
)

// Cell is a zero-based cell position.
type Cell struct {
	Row int
	Col int
}

// A1Cell formats a zero-based position in A1 notation: (0, 0) is A1, (4, 27) is AB5.
func A1Cell(row, col int) string {
	var letters []byte
	for n := col + 1; n > 0; {
		digit := n % 26
		if digit == 0 {
			digit = 26
		}
		letters = append([]byte{byte('A' + digit - 1)}, letters...)
		n = (n - digit) / 26
	}
	return string(letters) + strconv.Itoa(row+1)
}

func A1Range(sheetName string, start, end Cell) string {
	return fmt.Sprintf("'%s'!%s:%s", sheetName, A1Cell(start.Row, start.Col), A1Cell(end.Row, end.Col))
}
