package main

import (
	"github.com/spf13/cobra"
)

var (
	addName        string
	addPhone       string
	addDescription string
	addServices    string
)

func init() {
	addCmd.Flags().StringVar(&addName, "name", "", "Caller name (required)")
	addCmd.Flags().StringVar(&addPhone, "phone", "", "Contact number, digits only (required)")
	addCmd.Flags().StringVar(&addDescription, "description", "", "What happened (required)")
	addCmd.Flags().StringVar(&addServices, "services", "", "Required services, e.g. fire, police (required)")
	rootCmd.AddCommand(addCmd)
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a new call",
	Long: `Record a new call with status NEW and the current time.

Example:
  calldesk add --name "John Doe" --phone 5551234 \
    --description "kitchen fire" --services fire`,
	Args: cobra.NoArgs,
	RunE: runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	s := openStore()
	c, err := s.Create(addName, addPhone, addDescription, addServices)
	warning := persistWarning(err)
	printCall(c, warning)
	return nil
}
