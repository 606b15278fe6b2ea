package main

import "github.com/realriphub/cmt-rr/cmd"

func main() {
	cmd.Execute()
}
