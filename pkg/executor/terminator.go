package executor

import "strings"

// terminators is the small closed set of agent outputs the executor
// interprets directly; everything else is forwarded to the simulator so its
// own validation produces the authoritative error (§4.4 Action parsing).
var terminators = map[string]bool{
	"done":      true,
	"task done": true,
	"finished":  true,
	"complete":  true,
}

// isTerminator matches command case-insensitively against the terminator set.
func isTerminator(command string) bool {
	return terminators[strings.ToLower(strings.TrimSpace(command))]
}
