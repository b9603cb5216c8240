package main

import "github.com/iksnae/session-report/cmd"

func main() {
	cmd.Execute()
}
