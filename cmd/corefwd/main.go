// Command corefwd runs the forwarding daemon.
package main

import (
	"github.com/ndnfwd/corefwd/cmd"
)

func main() {
	cmd.CmdCorefwd.Execute()
}
