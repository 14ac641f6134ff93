package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var timemapCmd = &cobra.Command{
	Use:   "timemap REPO KEY",
	Short: "List every change timestamp for a key, newest first",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := parseRepo(args[0])
		if err != nil {
			return err
		}

		s, rs, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		for ts, err := range rs.Timemap(repo, []byte(args[1])) {
			if err != nil {
				return err
			}
			fmt.Println(ts)
		}
		return nil
	},
}
