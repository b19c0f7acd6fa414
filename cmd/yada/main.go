package main

import "yada/internal/cli"

func main() {
	cli.Execute()
}
