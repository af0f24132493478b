package runspec

import "os"

// expandEnv expands ${VAR} / $VAR references in raw YAML bytes using Go's
// standard shell-style expansion, before the content is parsed. Missing
// variables expand to the empty string; Validate catches fields left empty.
func expandEnv(data []byte) []byte {
	return []byte(os.ExpandEnv(string(data)))
}
