package refagent

import "strings"

// extractCommand pulls the action command out of a model's free-form
// response. Agents are prompted to put the command on its own line
// prefixed "COMMAND:"; if that marker is absent the whole trimmed response
// is treated as the command, so a terse model that just emits "done" still
// terminates the task correctly.
const commandMarker = "COMMAND:"

func extractCommand(raw string) string {
	lines := strings.Split(raw, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if strings.HasPrefix(strings.ToUpper(line), commandMarker) {
			return strings.TrimSpace(line[len(commandMarker):])
		}
	}
	return strings.TrimSpace(raw)
}
