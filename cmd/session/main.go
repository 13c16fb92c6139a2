package main

import "github.com/aussiebroadwan/cookieauth/cmd/session/cmd"

func main() {
	cmd.Execute()
}
