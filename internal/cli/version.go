package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/avetisov/esmon/internal/build"
	"github.com/avetisov/esmon/internal/integrity"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		b := build.Current()
		info := map[string]string{
			"name":    "esmon",
			"version": b.Version,
			"date":    b.Date,
			"info":    b.Info,
		}
		// The binary digest goes into the checksum file that arms the
		// startup integrity check.
		if hash, err := integrity.HashSelf(); err == nil {
			info["binary_sha256"] = hash
		}
		out, _ := json.MarshalIndent(info, "", "  ")
		fmt.Println(string(out))
	},
}
