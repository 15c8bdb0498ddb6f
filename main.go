package main

import "github.com/atelierhub/workshop-management/cmd"

func main() {
	cmd.Execute()
}
