package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"github.com/cuemby/triplestore/pkg/types"
	"github.com/spf13/cobra"
)

var putCmd = &cobra.Command{
	Use:   "put REPO KEY TS",
	Short: "Store a statement set for a key at a timestamp, read from stdin (one statement per line)",
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

		var stmts []string
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				continue
			}
			stmts = append(stmts, line)
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}

		s, rs, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		outcome, err := rs.Put(repo, []byte(args[1]), ts, types.NewStatementSet(stmts...))
		if err != nil {
			return err
		}
		fmt.Println(outcome)
		return nil
	},
}

func parseRepo(s string) (types.Repo, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid repo %q: %w", s, err)
	}
	return types.Repo(n), nil
}
