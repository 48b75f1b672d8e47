// Command stats prints the per-segment statistics recorded for a flushed
// segment file.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/salvatore-campagna/invindex/roaringstore"
	"github.com/salvatore-campagna/invindex/segment"
)

const bodyField segment.FieldRef = 0

func main() {
	inputPath := flag.String("in", "segment.bin", "path to a flushed segment file")
	flag.Parse()

	blob, err := os.ReadFile(*inputPath)
	if err != nil {
		fmt.Printf("Error reading %s: %v\n", *inputPath, err)
		os.Exit(1)
	}

	seg, err := roaringstore.Deserialize(blob)
	if err != nil {
		fmt.Printf("Error loading segment %s: %v\n", *inputPath, err)
		os.Exit(1)
	}

	fmt.Printf("\n+============== Stats ===============\n\n")
	fmt.Printf("Total documents: %d\n", seg.TotalDocs())

	if v, ok := seg.Stat(segment.StatTotalDocs); ok {
		fmt.Printf("total_docs stat: %d\n", v)
	}
	if v, ok := seg.Stat(segment.StatTotalFieldDocs(bodyField)); ok {
		fmt.Printf("total_field_docs[body]: %d\n", v)
	}
	if v, ok := seg.Stat(segment.StatTotalFieldTokens(bodyField)); ok {
		fmt.Printf("total_field_tokens[body]: %d\n", v)
	}
}
