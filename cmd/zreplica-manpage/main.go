package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra/doc"

	"github.com/arthur-debert/zreplica/cmd/zreplica"
	"github.com/arthur-debert/zreplica/internal/version"
)

func main() {
	rootCmd := zreplica.NewRootCmd()

	header := &doc.GenManHeader{
		Title:   "ZREPLICA",
		Section: "1",
		Source:  "zreplica " + version.Version,
		Manual:  "zreplica manual",
	}

	err := doc.GenMan(rootCmd, header, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating man page: %v\n", err)
		os.Exit(1)
	}
}
