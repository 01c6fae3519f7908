package main

import "github.com/sealworks/seal-erp/cmd/sealctl/cli"

func main() {
	cli.Execute()
}
