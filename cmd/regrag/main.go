package main

import "github.com/dgallion1/regrag/internal/cli"

func main() {
	cli.Execute()
}
