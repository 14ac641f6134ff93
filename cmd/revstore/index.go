package main

import (
	"fmt"
	"strconv"

	"github.com/cuemby/triplestore/pkg/config"
	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index REPO TS",
	Short: "List keys live in a repo at a timestamp",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := parseRepo(args[0])
		if err != nil {
			return err
		}
		ts, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ts %q: %w", args[1], err)
		}
		page, _ := cmd.Flags().GetInt("page")
		pageSize, _ := cmd.Flags().GetInt("page-size")
		if pageSize < 1 {
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load("REVSTORE_", configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			pageSize = cfg.IndexPageSize
		}

		s, rs, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		for key, err := range rs.IndexAt(repo, ts, page, pageSize) {
			if err != nil {
				return err
			}
			fmt.Println(string(key))
		}
		return nil
	},
}

func init() {
	indexCmd.Flags().Int("page", 0, "Zero-indexed page number")
	indexCmd.Flags().Int("page-size", 0, "Number of keys per page (0 uses the configured index_page_size)")
}
