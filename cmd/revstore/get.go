package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get REPO KEY TS",
	Short: "Print the statement set live for a key at a timestamp",
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

		stmts, ok, err := rs.GetAt(repo, []byte(args[1]), ts)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("(absent)")
			return nil
		}
		for _, stmt := range stmts.Sorted() {
			fmt.Println(stmt)
		}
		return nil
	},
}
