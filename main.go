package main

import "github.com/Yates-Labs/auditbot/cmd"

func main() {
	cmd.Execute()
}
