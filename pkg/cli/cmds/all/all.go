// Package all registers every shell command set.
package all

import (
	// command sets
	_ "github.com/robotalks/nxt.go/pkg/cli/cmds/brick"
	_ "github.com/robotalks/nxt.go/pkg/cli/cmds/files"
	_ "github.com/robotalks/nxt.go/pkg/cli/cmds/i2c"
)
