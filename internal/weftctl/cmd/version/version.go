// Package version implements `weftctl version`.
package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weft-sh/weft/pkg/utils/json"
	"github.com/weft-sh/weft/pkg/version"
)

// NewCmdVersion prints the client version information.
func NewCmdVersion() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the weftctl version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := json.MarshalIndent(version.Get(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
