// docscan scans documents and datasets for Vietnamese sensitive data.
package main

import "github.com/raaihank/doc-sentinel/internal/cli"

func main() {
	cli.Execute()
}
