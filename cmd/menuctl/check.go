package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/menucockpit/server/internal/docstore"
)

func init() {
	var dataDir string

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Integrity-check the JSON documents under the data directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := docstore.New()
			bad := 0
			for _, sub := range []string{"weeks", "recipes", "chats", "jobs"} {
				results, err := store.Scan(filepath.Join(dataDir, sub))
				if err != nil {
					return err
				}
				for _, res := range results {
					line := fmt.Sprintf("%-7s %s", res.State, res.Path)
					if res.Detail != "" {
						line += "  (" + res.Detail + ")"
					}
					_, _ = fmt.Fprintln(os.Stdout, line)
					if res.State != docstore.DocOK {
						bad++
					}
				}
			}
			if bad > 0 {
				return fmt.Errorf("%d document(s) empty or corrupt", bad)
			}
			_, _ = fmt.Fprintln(os.Stdout, "all documents ok")
			return nil
		},
	}
	checkCmd.Flags().StringVarP(&dataDir, "data", "d", "./data", "Data directory root")

	rootCmd.AddCommand(checkCmd)
}
