package main

import "github.com/deploymenttheory/go-officecrypto/cmd"

func main() {
	cmd.Execute()
}
