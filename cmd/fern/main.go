package main

import (
	"os"

	"github.com/sujan-004/etl-pipeline-project/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
