package main

import (
	"errors"

	"github.com/matsen/calldesk/internal/call"
	"github.com/spf13/cobra"
)

// updateFlags holds the raw values of the update command's flags.
type updateFlags struct {
	name        string
	phone       string
	description string
	services    string
	status      string
}

var updateValues updateFlags

var errNothingToUpdate = errors.New("nothing to update: pass at least one of --name, --phone, --description, --services, --status")

func init() {
	updateCmd.Flags().StringVar(&updateValues.name, "name", "", "New caller name")
	updateCmd.Flags().StringVar(&updateValues.phone, "phone", "", "New contact number")
	updateCmd.Flags().StringVar(&updateValues.description, "description", "", "New description")
	updateCmd.Flags().StringVar(&updateValues.services, "services", "", "New required services")
	updateCmd.Flags().StringVar(&updateValues.status, "status", "", "New status (NEW, IN_PROGRESS, RESOLVED)")
	rootCmd.AddCommand(updateCmd)
}

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change fields of an existing call",
	Long: `Change fields of an existing call. Only the flags given are changed.
The update is all-or-nothing: an invalid value leaves the call untouched.

Example:
  calldesk update 3 --status in_progress
  calldesk update 3 --phone 5559876 --services "fire, ambulance"`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdate,
}

func runUpdate(cmd *cobra.Command, args []string) error {
	id := parseID(args[0])

	p, err := buildPatch(updateValues, cmd.Flags().Changed)
	if err != nil {
		exitWithError(exitCodeFor(err), "%v", err)
	}

	s := openStore()
	c, err := s.Update(id, p)
	warning := persistWarning(err)
	printCall(c, warning)
	return nil
}

// buildPatch sets a patch field for every flag the user passed, even when
// its value is empty, so store validation can reject it. Status is matched
// case-insensitively.
func buildPatch(v updateFlags, changed func(name string) bool) (call.Patch, error) {
	var p call.Patch
	if changed("name") {
		p.CallerName = &v.name
	}
	if changed("phone") {
		p.ContactNumber = &v.phone
	}
	if changed("description") {
		p.Description = &v.description
	}
	if changed("services") {
		p.RequiredServices = &v.services
	}
	if changed("status") {
		st, err := call.ParseStatusFold(v.status)
		if err != nil {
			return call.Patch{}, err
		}
		p.Status = &st
	}
	if p.IsEmpty() {
		return call.Patch{}, errNothingToUpdate
	}
	return p, nil
}
