// Command consumer demonstrates the consumer side of the distributed VOL
// scenario: opening a file and dataset a producer serves, and reading it
// back across the query protocol. See cmd/producer's doc comment for why
// both sides run together here rather than as separate processes.
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/scigolib/lowfive/internal/demo"
)

func main() {
	result, err := demo.RunScenario(context.Background())
	if err != nil {
		log.Fatalf("consumer: scenario failed: %v", err)
	}
	fmt.Printf("consumer: read %d bytes: %v\n", len(result.Read), result.Read)
}
