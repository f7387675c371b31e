// VIR-CLASP - pulldown proteomics significance pipeline
package main

import (
	"fmt"
	"os"

	"github.com/Ascano-Lab/virclasp/cmd/virclasp/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
