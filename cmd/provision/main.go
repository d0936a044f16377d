package main

import "github.com/oshokin/workstation-setup/cmd/provision/cmd"

func main() {
	cmd.Execute()
}
