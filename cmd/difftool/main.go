// Command difftool shows the token diff between two texts the way the
// correction panel does.
//
// Usage:
//
//	difftool [--json] [--plain] ORIGINAL CORRECTED
//	difftool [--json] [--plain] -f original.txt corrected.txt
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"typewise/diff"
	"typewise/render"
)

func main() {
	jsonOut := false
	plain := !render.IsTerminal(os.Stdout)
	files := false
	var args []string

	for _, arg := range os.Args[1:] {
		switch arg {
		case "--json":
			jsonOut = true
		case "--plain":
			plain = true
		case "-f", "--files":
			files = true
		case "-h", "--help":
			usage()
			return
		default:
			args = append(args, arg)
		}
	}
	if len(args) != 2 {
		usage()
		os.Exit(2)
	}

	original, corrected := args[0], args[1]
	if files {
		var err error
		if original, err = readFile(original); err != nil {
			fail(err)
		}
		if corrected, err = readFile(corrected); err != nil {
			fail(err)
		}
	}

	spans := diff.Compute(original, corrected)

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if spans == nil {
			spans = []diff.Span{}
		}
		if err := enc.Encode(spans); err != nil {
			fail(err)
		}
		return
	}

	fmt.Println(render.Spans(spans, !plain))
	if !diff.Changed(spans) {
		fmt.Fprintln(os.Stderr, "no changes")
	}
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(string(data), "\n"), nil
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: difftool [--json] [--plain] ORIGINAL CORRECTED
       difftool [--json] [--plain] -f original.txt corrected.txt`)
}
