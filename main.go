package main

import "docs-translator/internal/cli"

func main() {
	cli.Execute()
}
