// Command textguard runs the content guardrail engine.
package main

import "github.com/textguard/textguard/cmd/textguard/cmd"

func main() {
	cmd.Execute()
}
