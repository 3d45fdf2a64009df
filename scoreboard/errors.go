package scoreboard

import (
	"fmt"
	"net/http"

	"github.com/programme-lv/autoprogcomp/srvcerror"
)

const ErrCodeInvalidCommand = "invalid_command"

func invalidCommand(msg string) *srvcerror.Error {
	return srvcerror.New(ErrCodeInvalidCommand, msg).SetHttpStatusCode(http.StatusBadRequest)
}

func ErrUnrecognizedCommand(raw string) *srvcerror.Error {
	return invalidCommand(fmt.Sprintf("unrecognized command '%s'", raw))
}

func ErrInvalidContestCommand(raw string, cause error) *srvcerror.Error {
	return invalidCommand(fmt.Sprintf("failed to parse contest command \"%s\"", raw)).SetDebug(cause)
}

// ErrInvalidCommand reports a command whose grammar matched but whose argument is unusable.
func ErrInvalidCommand(raw string, cause error) *srvcerror.Error {
	return invalidCommand(fmt.Sprintf("invalid command '%s'", raw)).SetDebug(cause)
}

func ErrDuplicateCoupons() *srvcerror.Error {
	return invalidCommand("at most 1 coupons command can be specified")
}

func ErrDuplicateTimeframe() *srvcerror.Error {
	return invalidCommand("exactly 1 timeframe command must be specified")
}

func ErrMissingTimeframe() *srvcerror.Error {
	return invalidCommand("a timeframe command must be provided")
}
