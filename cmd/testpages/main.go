// Test pages fetches a set of pages and reports the editable fields typewise
// finds on each, with what the offline rules would change in them.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"typewise/correction"
	"typewise/diff"
	"typewise/dom"
	"typewise/fetcher"
	"typewise/render"
)

var testURLs = []string{
	"https://example.com",
	"https://lite.duckduckgo.com/lite/",
	"https://www.wikipedia.org",
	"https://github.com/login",
	"https://news.ycombinator.com/login",
	"https://httpbin.org/forms/post",
}

func main() {
	f := fetcher.New(fetcher.DefaultOptions())

	if len(os.Args) > 1 {
		// Explicit URLs or files
		for _, target := range os.Args[1:] {
			testPage(f, target)
		}
		return
	}

	for _, url := range testURLs {
		testPage(f, url)
		fmt.Println(strings.Repeat("=", 80))
	}
}

func testPage(f *fetcher.Fetcher, target string) {
	fmt.Printf("Testing: %s\n", target)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	result, err := f.Load(ctx, target)
	if err != nil {
		fmt.Printf("  ERROR fetching: %v\n", err)
		return
	}
	fmt.Printf("  Fetched in %v (browser: %v)\n", result.FetchTime.Round(time.Millisecond), result.UsedBrowser)

	doc, err := dom.ParseString(result.HTML, dom.WithURL(result.FinalURL))
	if err != nil {
		fmt.Printf("  ERROR parsing: %v\n", err)
		return
	}

	fields := doc.Editables()
	kinds := make(map[string]int)
	for _, e := range fields {
		kinds[e.Kind]++
	}
	fmt.Printf("  Editables: %d input, %d textarea, %d contenteditable\n",
		kinds["input"], kinds["textarea"], kinds["contenteditable"])

	fallback := correction.NewFallback()
	for i, e := range fields {
		if i >= 5 {
			fmt.Printf("    ... and %d more\n", len(fields)-5)
			break
		}
		line := fmt.Sprintf("    %-10s %s", e.Kind, render.Truncate(e.Selector, 50))
		if e.Preview != "" {
			res, err := fallback.Correct(ctx, correction.Request{Text: e.Preview, Mode: correction.ModeOrtho})
			if err == nil {
				if spans := diff.Compute(e.Preview, res.CorrectedText); diff.Changed(spans) {
					line += "  " + render.Truncate(render.Spans(spans, false), 40)
				}
			}
		}
		fmt.Println(line)
	}
}
