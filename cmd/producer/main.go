// Command producer demonstrates the producer side of the distributed VOL
// scenario: creating a file and dataset, writing to it, and serving it to
// a consumer on file_close. In a real deployment this process and
// cmd/consumer run under mpirun as separate MPI ranks joined by a real
// intercommunicator; here both sides of the round trip run in one process
// over internal/demo's in-process stand-in, since that is what the
// retrieval pack's example repos provide in place of an MPI binding.
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
		log.Fatalf("producer: scenario failed: %v", err)
	}
	fmt.Printf("producer: wrote %d bytes, consumer read back %d bytes, match=%v\n",
		len(result.Written), len(result.Read), string(result.Written) == string(result.Read))
}
