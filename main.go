package main

import "github.com/mensylisir/xmstack/cmd"

func main() {
	cmd.Execute()
}
