package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete REPO KEY TS",
	Short: "Append a delete record for a key at a timestamp",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := parseRepo(args[0])
		if err != nil {
			return err
		}
		ts, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ts %q: %w", args[2], err)
		}

		s, rs, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := rs.Delete(repo, []byte(args[1]), ts); err != nil {
			return err
		}
		fmt.Println("ok")
		return nil
	},
}
