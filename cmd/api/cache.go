package main

import (
	"errors"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the extraction cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop every cached extraction so documents are re-read by the model",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		defer a.Close()

		if a.cache == nil {
			return errors.New("extraction cache is not enabled (set redis.enabled)")
		}
		if err := a.cache.Invalidate(cmd.Context()); err != nil {
			return err
		}
		cmd.Println("Extraction cache cleared")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
