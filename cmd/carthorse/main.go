// Command carthorse runs the trail-to-routable-graph pipeline over a
// single region and writes a ranked set of route recommendations.
package main

import (
	"log"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("carthorse: %v", err)
	}
}
