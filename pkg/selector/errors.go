package selector

import (
	"fmt"

	"github.com/embench/evalcore/pkg/model"
)

// errUnknownSelectionMode reports a selection mode RunSpec.Validate should
// already have rejected; Select defends against it regardless.
func errUnknownSelectionMode(mode model.SelectionMode) error {
	return fmt.Errorf("selector: unknown selection mode %q", mode)
}
