// ./main.go
package main

import (
	"github.com/xkilldash9x/webpilot-cli/cmd"
)

func main() {
	cmd.Execute()
}
