// Command decode prints the readings carried by a compact LoRaWAN uplink,
// the way the receiving backend sees them.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"wifi-sampler/internal/payload"
)

func main() {
	pretty := flag.Bool("pretty", false, "indent the JSON output")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [-pretty] HEX...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	failed := false
	for _, arg := range flag.Args() {
		rs, err := payload.DecodeCompact(strings.TrimSpace(arg))
		if err != nil {
			fmt.Fprintf(os.Stderr, "decode %q: %v\n", arg, err)
			failed = true
			continue
		}
		if err := enc.Encode(rs); err != nil {
			fmt.Fprintf(os.Stderr, "write: %v\n", err)
			os.Exit(1)
		}
	}
	if failed {
		os.Exit(1)
	}
}
