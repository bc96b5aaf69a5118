package cli

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	feed "RevealBoard/internal/net"
)

func (c *CLI) browseCommand() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "List RevealBoard feeds on the local network",
		RunE: func(cmd *cobra.Command, args []string) error {
			printInfo(c.Out, "Looking for feeds for %s", timeout)
			found := 0
			err := feed.Browse(cmd.Context(), timeout, func(addr string, info []string) {
				found++
				printFile(c.Out, "http://"+addr+"/")
				if len(info) > 0 {
					printDetail(c.Out, "%s", strings.Join(info, " "))
				}
			})
			if err != nil {
				return err
			}
			if found == 0 {
				printWarning(c.Out, "No feeds found")
				return nil
			}
			printSuccess(c.Out, "Found %d feeds", found)
			return nil
		},
	}

	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 3*time.Second, "how long to listen for answers")

	return cmd
}
