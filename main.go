package main

import "github.com/yumyai/genepanel/cmd"

func main() {
	cmd.Execute()
}
