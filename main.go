package main

import "github.com/jsphweid/scoreline/cmd"

func main() {
	cmd.Execute()
}
