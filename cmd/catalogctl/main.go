// Command catalogctl validates, previews and seeds the product catalog, and
// mints metrics scrape tokens.
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
