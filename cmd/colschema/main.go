// Command colschema derives parquet schemas from declarative data models and
// inspects parquet files.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/ajitpratap0/colschema/pkg/logger"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	err := newRootCmd(os.Stdout).ExecuteContext(context.Background())
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
