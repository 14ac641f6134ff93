package main

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var newRepoCmd = &cobra.Command{
	Use:   "new-repo",
	Short: "Mint a synthetic repo ID for local testing",
	RunE: func(cmd *cobra.Command, args []string) error {
		id := uuid.New()
		repo := int64(binary.BigEndian.Uint64(id[:8]) >> 1)
		fmt.Println(repo)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(newRepoCmd)
}
