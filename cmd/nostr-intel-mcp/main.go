package main

import (
	"flag"
	"fmt"
	"os"

	nostrintel "github.com/themikemoniker/nostr-intel-mcp"
)

func main() {
	configFile := flag.String("config", "", "path to config.toml (defaults to ./config.toml)")
	flag.Parse()

	if err := nostrintel.Main(*configFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
