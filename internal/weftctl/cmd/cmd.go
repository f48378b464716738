// Package cmd builds the weftctl root command.
package cmd

import (
	"io"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	genericapiserver "github.com/weft-sh/weft/internal/pkg/server"
	"github.com/weft-sh/weft/internal/weftctl/cmd/chat"
	verz "github.com/weft-sh/weft/internal/weftctl/cmd/version"
	"github.com/weft-sh/weft/pkg/utils/cliflag"
)

// NewDefaultWeftCtlCommand creates the `weftctl` command with default arguments.
func NewDefaultWeftCtlCommand() *cobra.Command {
	return NewWeftCtlCommand(os.Stdin, os.Stdout, os.Stderr)
}

// NewWeftCtlCommand returns a new initialized instance of the weftctl command.
func NewWeftCtlCommand(in io.Reader, out, err io.Writer) *cobra.Command {
	// Parent command to which all subcommands are added.
	cmds := &cobra.Command{
		Use:   "weftctl",
		Short: "weftctl talks to the weft splicing proxy",
		Long: heredoc.Doc(`
			weftctl is the operator CLI for the weft splicing proxy.

			It can hold an interactive chat session through a running weftd,
			send one-off messages, and print version information.

			Find more information at:
				https://github.com/weft-sh/weft/blob/main/docs/weftctl.md`),
		Run: runHelp,
	}
	cmds.SetIn(in)
	cmds.SetOut(out)
	cmds.SetErr(err)

	flags := cmds.PersistentFlags()
	flags.SetNormalizeFunc(cliflag.WordSepNormalizeFunc)
	flags.String("config", "", "Path to the weftctl configuration file.")

	_ = viper.BindPFlags(flags)
	cobra.OnInitialize(func() {
		genericapiserver.LoadConfig(viper.GetString("config"), "weftctl")
	})

	// From this point and forward we get warnings on flags that contain "_" separators
	cmds.SetGlobalNormalizationFunc(cliflag.WarnWordSepNormalizeFunc)

	cmds.AddCommand(chat.NewCmdChat())
	cmds.AddCommand(verz.NewCmdVersion())

	return cmds
}

func runHelp(cmd *cobra.Command, args []string) {
	_ = cmd.Help()
}
