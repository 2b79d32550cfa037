//go:build ignore
// +build ignore

// Customer CSV Generator
// Produces a synthetic customer CSV for exercising the connector against
// the stub API (cmd/showads-stub) or the real service.
//
// Usage:
//   go run scripts/generate_customers.go \
//     --rows=50000 \
//     --dirty=5 \
//     --out=customers.csv
//
// --dirty is the percentage of rows written with a deliberate defect
// (bad age, broken cookie, digits in the name, wrong field count) so
// rejection handling can be observed end to end.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"

	"github.com/google/uuid"
)

var firstNames = []string{
	"James", "Mary", "John", "Patricia", "Robert", "Jennifer", "Michael",
	"Linda", "David", "Elizabeth", "William", "Barbara", "Richard", "Susan",
	"Joseph", "Jessica",
}

var lastNames = []string{
	"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller",
	"Davis", "Rodriguez", "Martinez", "Hernandez", "Lopez", "Gonzalez",
	"Wilson", "Anderson", "Thomas",
}

func main() {
	var (
		rows  int
		dirty int
		out   string
		seed  int64
	)
	flag.IntVar(&rows, "rows", 10000, "number of data rows to generate")
	flag.IntVar(&dirty, "dirty", 0, "percentage of rows written with a deliberate defect")
	flag.StringVar(&out, "out", "customers.csv", "output file path")
	flag.Int64Var(&seed, "seed", 42, "random seed for names, ages and banner ids")
	flag.Parse()

	if dirty < 0 || dirty > 100 {
		log.Fatalf("--dirty must be between 0 and 100, got %d", dirty)
	}

	rng := rand.New(rand.NewSource(seed))

	f, err := os.Create(out)
	if err != nil {
		log.Fatalf("Failed to create %s: %v", out, err)
	}
	defer f.Close()

	w := bufio.NewWriterSize(f, 1<<20)
	fmt.Fprintln(w, "Name,Age,Cookie,Banner_id")

	defects := 0
	for i := 0; i < rows; i++ {
		if dirty > 0 && rng.Intn(100) < dirty {
			fmt.Fprintln(w, dirtyRow(rng))
			defects++
			continue
		}
		fmt.Fprintln(w, cleanRow(rng))
	}

	if err := w.Flush(); err != nil {
		log.Fatalf("Failed to write %s: %v", out, err)
	}
	log.Printf("Wrote %d rows (%d with defects) to %s", rows, defects, out)
}

func cleanRow(rng *rand.Rand) string {
	name := firstNames[rng.Intn(len(firstNames))] + " " + lastNames[rng.Intn(len(lastNames))]
	age := 18 + rng.Intn(103) // 18..120
	return fmt.Sprintf("%s,%d,%s,%d", name, age, uuid.NewString(), rng.Intn(100))
}

func dirtyRow(rng *rand.Rand) string {
	switch rng.Intn(6) {
	case 0: // under age
		return fmt.Sprintf("Ann Young,%d,%s,%d", rng.Intn(18), uuid.NewString(), rng.Intn(100))
	case 1: // age is not a number
		return fmt.Sprintf("Bob Null,unknown,%s,%d", uuid.NewString(), rng.Intn(100))
	case 2: // broken cookie
		return fmt.Sprintf("Cal Torn,%d,not-a-cookie,%d", 18+rng.Intn(80), rng.Intn(100))
	case 3: // digits in the name
		return fmt.Sprintf("D4ve Bot,%d,%s,%d", 18+rng.Intn(80), uuid.NewString(), rng.Intn(100))
	case 4: // banner id out of range
		return fmt.Sprintf("Eve Range,%d,%s,%d", 18+rng.Intn(80), uuid.NewString(), 100+rng.Intn(900))
	default: // wrong field count
		return "too,few"
	}
}
