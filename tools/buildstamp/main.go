package main

import (
	"fmt"
	"time"
)

// buildstamp prints a build timestamp for gmofx release artifacts, in
// UTC rather than any local zone.
func main() {
	fmt.Print(time.Now().UTC().Format("2006-01-02 15:04") + " UTC")
}
