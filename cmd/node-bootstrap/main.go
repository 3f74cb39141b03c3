package main

import "github.com/oshokin/node-bootstrap/cmd/node-bootstrap/cmd"

func main() {
	cmd.Execute()
}
