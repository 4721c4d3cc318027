package flags

import "github.com/urfave/cli/v2"

const (
	NodeCategory    = "NODE"
	NetworkCategory = "NETWORKING"
	MinterCategory  = "MINTER"
	LoggingCategory = "LOGGING AND DEBUGGING"
	MiscCategory    = "MISC"
)

func init() {
	cli.HelpFlag.(*cli.BoolFlag).Category = MiscCategory
}
