package main

import (
	"github.com/joho/godotenv"

	"musicstream/cmd"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	godotenv.Load()
	cmd.SetVersionInfo(version, commit, date)
	cmd.Execute()
}
