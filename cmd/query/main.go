// Command query loads a flushed segment file, plans and executes a
// conjunction-of-terms query read from QUERY (or an argument), and prints
// the top-scoring documents.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/salvatore-campagna/invindex/collector"
	"github.com/salvatore-campagna/invindex/executor"
	"github.com/salvatore-campagna/invindex/planner"
	"github.com/salvatore-campagna/invindex/query"
	"github.com/salvatore-campagna/invindex/roaringstore"
	"github.com/salvatore-campagna/invindex/scorer"
	"github.com/salvatore-campagna/invindex/segment"
)

const bodyField segment.FieldRef = 0

func main() {
	inputPath := flag.String("in", "segment.bin", "path to a flushed segment file")
	limit := flag.Int("limit", 10, "maximum number of results to print")
	flag.Parse()

	q := getQuery()
	fmt.Printf("Query: %s\n", q)

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

	terms := strings.Fields(strings.ToLower(q))
	scored := make([]query.Query, 0, len(terms))
	for _, term := range terms {
		scored = append(scored, query.MatchTerm{Field: bodyField, Term: term, Scorer: scorer.TFIDF{}})
	}

	plan := planner.Plan(query.Conjunction{Queries: scored}, seg)

	top := collector.NewTopN(*limit)
	if err := executor.Run(context.Background(), plan, seg, seg, seg.TotalDocs(), top); err != nil {
		fmt.Printf("Query execution failed: %v\n", err)
		os.Exit(1)
	}

	printResults(top.Hits())
}

func getQuery() string {
	if q, ok := os.LookupEnv("QUERY"); ok {
		return q
	}
	if flag.NArg() > 0 {
		return strings.Join(flag.Args(), " ")
	}
	return "example query"
}

func printResults(hits []collector.Hit) {
	fmt.Printf("Scored documents: %d\n", len(hits))
	fmt.Println(strings.Repeat("-", 22))
	fmt.Printf("| %-8s | %-8s |\n", "DocID", "Score")
	fmt.Println(strings.Repeat("-", 22))
	for _, hit := range hits {
		fmt.Printf("| %-8d | %8.2f |\n", hit.DocID, hit.Score)
	}
	fmt.Println(strings.Repeat("-", 22))
}
