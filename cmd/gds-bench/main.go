package main

import "github.com/dd0wney/cluso-gds/cmd/gds-bench/cmd"

func main() {
	cmd.Execute()
}
