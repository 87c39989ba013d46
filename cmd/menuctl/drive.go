package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	driveCmd := &cobra.Command{Use: "drive", Short: "Drive rescan operations"}

	rescanCmd := &cobra.Command{
		Use:   "rescan",
		Short: "Trigger a drive rescan job",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doJSON(http.MethodPost, fmt.Sprintf("%s/api/drive/rescan", apiFlag), nil)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	driveCmd.AddCommand(rescanCmd)

	statusCmd := &cobra.Command{
		Use:   "status [JOB_ID]",
		Short: "Show a rescan job (latest when no id given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := fmt.Sprintf("%s/api/drive/rescan/status", apiFlag)
			if len(args) == 1 {
				url += "?job_id=" + args[0]
			}
			data, err := doGet(url)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	driveCmd.AddCommand(statusCmd)

	rootCmd.AddCommand(driveCmd)
}
