package main

import (
	"fitscrape/cmd/fitscrape/commands"
	"fitscrape/internal/components/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
