package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "carthorse",
	Short: "Build a routable trail graph and route recommendations for one region",
	Long: `Carthorse ingests raw trail polylines for a region, resolves
intersections, builds a noded routable graph, and enumerates ranked
loop, out-and-back, and point-to-point route candidates.`,
}

func init() {
	rootCmd.AddCommand(buildCmd)
}
