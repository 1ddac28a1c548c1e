// Command reportgen fills DOCX and HTML templates with data from YAML or JSON files.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
