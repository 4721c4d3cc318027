package flags

import (
	"github.com/urfave/cli/v2"
)

// NewApp creates a cli.App with sensible defaults applied across the
// ledgerlink commands.
func NewApp(gitCommit, gitDate, usage string) *cli.App {
	app := cli.NewApp()
	app.EnableBashCompletion = true
	app.Version = version(gitCommit, gitDate)
	app.Usage = usage
	return app
}

func version(gitCommit, gitDate string) string {
	v := "1.0.0"
	if len(gitCommit) >= 8 {
		v += "-" + gitCommit[:8]
	}
	if gitDate != "" {
		v += "-" + gitDate
	}
	return v
}
