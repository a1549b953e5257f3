// Command letterctl runs the letter pipeline locally: sanitizing model output,
// resolving placeholders, rendering PDFs and previews, and drafting letters
// against a configured provider.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
