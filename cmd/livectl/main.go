package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/livedesk/internal/admin"
	"github.com/fatih/color"
)

func main() {
	if err := admin.NewRootCmd(admin.DefaultConnector).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("✗")+" "+err.Error())
		os.Exit(1)
	}
}
