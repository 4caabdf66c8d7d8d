package main

import (
	"genenorm/internal/app"
	"genenorm/internal/appshell"
)

func main() {
	appshell.Main(app.RunContext)
}
