// Command kmeans reduces an image to K colors and writes the result.
//
//	kmeans MODE K in out
//
// MODE is -c (continuous) or -i (iterative). K is 0-255.
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/ironsheep/image-partition-mcp/internal/imaging"
	"github.com/ironsheep/image-partition-mcp/internal/quantize"
)

const usage = "Usage: kmeans -c|-i <clusterCount> <image.in> <image.out>"

func main() {
	log.SetFlags(0)
	log.SetPrefix("kmeans: ")

	if len(os.Args) != 5 {
		fmt.Println(usage)
		os.Exit(1)
	}

	mode, ok := quantize.ParseMode(os.Args[1])
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown mode %q, using %s\n", os.Args[1], mode)
	}

	k, err := strconv.Atoi(os.Args[2])
	if err != nil {
		fmt.Fprintln(os.Stderr, "Invalid cluster count: please enter an integer")
		fmt.Println(usage)
		os.Exit(1)
	}
	if k < 0 || k > 255 {
		fmt.Fprintln(os.Stderr, "Cluster count must be in the interval 0-255")
		fmt.Println(usage)
		os.Exit(1)
	}

	src, dst := os.Args[3], os.Args[4]

	img, err := imaging.Open(src)
	if err != nil {
		log.Fatalf("open %s: %v", src, err)
	}

	start := time.Now()
	q, err := quantize.New(imaging.ToRGB(img), k, mode)
	if err != nil {
		log.Fatal(err)
	}
	if err := q.Run(); err != nil {
		log.Fatal(err)
	}
	elapsed := time.Since(start)

	if err := imaging.Save(imaging.PaletteImage(q.Assignments(), q.Palette()), dst); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("DONE in %dms! Clustered to %d clusters, in %d loops.\n",
		elapsed.Milliseconds(), k, q.Passes())
	pops := q.Populations()
	for i, c := range q.Centroids() {
		r, g, b := c.Mean()
		fmt.Printf("  cluster %d: (%d,%d,%d) %d pixels\n", c.ID(), r, g, b, pops[i])
	}
}
