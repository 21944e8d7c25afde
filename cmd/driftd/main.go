package main

import "github.com/driftkit/drift/cmd/driftd/cmd"

func main() {
	cmd.Execute()
}
