// Command buildindex tokenizes a JSON document file into a segment and
// flushes it to a binary segment file.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/salvatore-campagna/invindex/roaringstore"
	"github.com/salvatore-campagna/invindex/segment"
)

// bodyField is the only indexed field this CLI knows about: a single
// "body" text field per document, assigned the fixed ordinal 0. Real
// multi-field schemas are an external-schema concern, out of scope here.
const bodyField segment.FieldRef = 0

type jsonDocument struct {
	ID   string `json:"id"`
	Body string `json:"body"`
}

func main() {
	inputPath := flag.String("in", "", "path to a JSON array of {id, body} documents")
	outputPath := flag.String("out", "segment.bin", "path to write the flushed segment file")
	flag.Parse()

	if *inputPath == "" {
		fmt.Println("usage: buildindex -in documents.json -out segment.bin")
		os.Exit(1)
	}

	data, err := os.ReadFile(*inputPath)
	if err != nil {
		fmt.Printf("Error reading %s: %v\n", *inputPath, err)
		os.Exit(1)
	}

	var docs []jsonDocument
	if err := json.Unmarshal(data, &docs); err != nil {
		fmt.Printf("Error parsing %s: %v\n", *inputPath, err)
		os.Exit(1)
	}

	builder := segment.New()
	for _, doc := range docs {
		indexed := map[string][]uint64{}
		for pos, token := range strings.Fields(strings.ToLower(doc.Body)) {
			indexed[token] = append(indexed[token], uint64(pos))
		}
		if _, err := builder.AddDocument(segment.Document{
			IndexedFields: map[segment.FieldRef]map[string][]uint64{bodyField: indexed},
			StoredFields:  map[segment.FieldRef][]byte{bodyField: []byte(doc.ID)},
		}); err != nil {
			fmt.Printf("Error indexing document %q: %v\n", doc.ID, err)
			os.Exit(1)
		}
	}

	seg, err := roaringstore.Flush(builder)
	if err != nil {
		fmt.Printf("Error flushing segment: %v\n", err)
		os.Exit(1)
	}

	blob, err := seg.Serialize()
	if err != nil {
		fmt.Printf("Error serializing segment: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*outputPath, blob, 0644); err != nil {
		fmt.Printf("Error writing %s: %v\n", *outputPath, err)
		os.Exit(1)
	}

	fmt.Printf("Indexed %d documents into %s (%d bytes)\n", seg.TotalDocs(), *outputPath, len(blob))
}
