package main

import "github.com/gaurav-prasanna/pagesnap/cmd"

func main() {
	cmd.Execute()
}
