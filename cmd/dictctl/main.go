package main

import (
	"context"
	"os"

	"github.com/dmitrijs2005/kabyedict/internal/admin"
)

func main() {
	os.Exit(admin.Main(context.Background(), os.Args))
}
