package main

import "github.com/lepinkainen/bookfill/cmd"

var execute = cmd.Execute

func main() {
	execute()
}
