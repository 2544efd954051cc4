package main

import (
	"os"

	"github.com/zetzet7298/letta-code/cmd"
	"github.com/zetzet7298/letta-code/pkg/utils"
)

func main() {
	logger := utils.GetLogger()
	// Flush buffered log output on the way out.
	defer func() {
		if err := logger.Close(); err != nil {
			os.Stderr.WriteString("Error closing logger: " + err.Error() + "\n")
		}
	}()

	if err := cmd.Execute(); err != nil {
		logger.Logf("Application error: %v", err)
		os.Exit(1)
	}
}
