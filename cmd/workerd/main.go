// Command workerd is the gRPC server that executes arbitrary Linux
// commands as isolated workers on behalf of authenticated clients.
package main

import (
	"fmt"
	"os"
)

const version = "0.1.0"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err.Error())
		os.Exit(1)
	}
}
