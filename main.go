package main

import "linkgrab/cmd"

func main() {
	cmd.Execute()
}
