package main

import "github.com/wkalt/distplan/cmd"

func main() {
	cmd.Execute()
}
