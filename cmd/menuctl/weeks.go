package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	weeksCmd := &cobra.Command{Use: "weeks", Short: "Week operations"}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored week ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("%s/api/weeks/list", apiFlag))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	weeksCmd.AddCommand(listCmd)

	currentCmd := &cobra.Command{
		Use:   "current",
		Short: "Show the week containing today",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("%s/api/weeks/current", apiFlag))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	weeksCmd.AddCommand(currentCmd)

	showCmd := &cobra.Command{
		Use:   "show WEEK_ID",
		Short: "Show one week (e.g. 2026-W07)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("%s/api/weeks/%s", apiFlag, args[0]))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	weeksCmd.AddCommand(showCmd)

	prepareCmd := &cobra.Command{
		Use:   "prepare WEEK_ID",
		Short: "Create the week document if absent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := fmt.Sprintf("%s/api/weeks/prepare", apiFlag)
			data, err := doJSON(http.MethodPost, url, map[string]string{"week_id": args[0]})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	weeksCmd.AddCommand(prepareCmd)

	rootCmd.AddCommand(weeksCmd)
}
