package main

import "github.com/agentic-research/quotaframe/cmd"

func main() {
	cmd.Execute()
}
