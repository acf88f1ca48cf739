package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/avetisov/esmon/internal/dest"
)

var verifyJSON bool

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "print the verification result as JSON")
}

var verifyCmd = &cobra.Command{
	Use:   "verify <path>",
	Short: "Verify hash chain integrity of a chained record log",
	Long: `Walks a hash-chained record log and validates that every entry links to
the SHA-256 of the previous line and that sequence numbers are
continuous. Exits 0 if valid, 1 if tampered.`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	result := dest.VerifyChain(args[0])

	if verifyJSON {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		if !result.Valid {
			os.Exit(1)
		}
		return nil
	}

	if result.Valid {
		fmt.Printf("OK: %d records verified\n", result.Records)
		return nil
	}
	fmt.Fprintf(os.Stderr, "FAILED at line %d: %s\n", result.Line, result.Err)
	os.Exit(1)
	return nil
}
