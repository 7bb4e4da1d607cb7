package main

import "github.com/robert-malhotra/ncattr/internal/cli"

func main() {
	cli.Execute()
}
