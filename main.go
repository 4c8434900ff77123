package main

import "vpcpeer/cmd"

func main() {
	cmd.Execute()
}
