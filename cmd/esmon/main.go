// esmon turns captured security event descriptors into structured,
// versioned records delivered to a configured destination.
package main

import "github.com/avetisov/esmon/internal/cli"

func main() {
	cli.Execute()
}
