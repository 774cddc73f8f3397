package main

import (
	"Bt1QCast/cmd"
	"log"
)

func main() {
	cmd.Execute()
	// If Execute() had a problem, Cobra would have called os.Exit.
	// If we reach here, the command completed successfully (or the
	// long-running server started and later shut down cleanly).
	log.Println("Application command execution finished.")
}
