package main

import (
	_ "time/tzdata"

	"github.com/cmlabs-hris/worklog-ledger/internal/cli"
)

func main() {
	cli.Execute()
}
