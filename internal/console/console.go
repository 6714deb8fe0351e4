// Package console implements the interactive menu for managing calls.
//
// The console owns all prompting and retry-on-invalid-input loops. It trusts
// the store for persistence and validation, but checks fields itself before
// an update so that one bad field does not discard the others.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/matsen/calldesk/internal/call"
	"github.com/matsen/calldesk/internal/store"
)

// Menu choices.
const (
	choiceAdd = iota + 1
	choiceGet
	choiceUpdate
	choiceDelete
	choiceList
	choiceSearchName
	choiceSearchPhone
	choiceExit
)

const menu = `1) Add a new call
2) Search a call by ID
3) Update a call by ID
4) Delete a call by ID
5) List all calls
6) Search calls by name
7) Search calls by phone
8) Save & Exit`

// errEndOfInput ends the session when the input stream is exhausted.
var errEndOfInput = errors.New("end of input")

// Console runs the menu loop against a loaded store.
type Console struct {
	in    *bufio.Scanner
	out   io.Writer
	store *store.Store
}

// New creates a console reading from in and writing to out.
func New(in io.Reader, out io.Writer, s *store.Store) *Console {
	return &Console{in: bufio.NewScanner(in), out: out, store: s}
}

// Run creates a console and runs it until exit or end of input.
func Run(in io.Reader, out io.Writer, s *store.Store) error {
	return New(in, out, s).Run()
}

// Run shows the menu until the user exits or input ends. Either way the
// store is saved once more before returning.
func (c *Console) Run() error {
	for {
		c.println(Title("==== Emergency Service App ===="))
		c.println(menu)

		choice, err := c.readInt("Choose an option: ")
		if err != nil {
			return c.finish()
		}

		switch choice {
		case choiceAdd:
			err = c.handleAdd()
		case choiceGet:
			err = c.handleGet()
		case choiceUpdate:
			err = c.handleUpdate()
		case choiceDelete:
			err = c.handleDelete()
		case choiceList:
			c.handleList()
		case choiceSearchName:
			err = c.handleSearch("Name contains: ", "name", c.store.SearchByName)
		case choiceSearchPhone:
			err = c.handleSearch("Phone contains: ", "phone", c.store.SearchByPhone)
		case choiceExit:
			return c.finish()
		default:
			c.println("Invalid option. Try again.")
		}
		if errors.Is(err, errEndOfInput) {
			return c.finish()
		}
		c.println("")
	}
}

func (c *Console) finish() error {
	if err := c.store.Save(); err != nil {
		c.println(Error(fmt.Sprintf("Could not save: %v", err)))
	}
	c.println("Goodbye!")
	return nil
}

func (c *Console) handleAdd() error {
	name, err := c.readNonEmpty("Caller name: ")
	if err != nil {
		return err
	}
	phone, err := c.readPhone("Contact number (digits only): ")
	if err != nil {
		return err
	}
	description, err := c.readNonEmpty("Description (what happened?): ")
	if err != nil {
		return err
	}
	services, err := c.readNonEmpty("Required services (e.g., fire, police, ambulance): ")
	if err != nil {
		return err
	}

	rec, err := c.store.Create(name, phone, description, services)
	if err != nil && !errors.Is(err, store.ErrNotPersisted) {
		c.println(Error(err.Error()))
		return nil
	}
	c.reportPersist(err)
	c.println("\nSaved:\n" + Card(rec))
	return nil
}

func (c *Console) handleGet() error {
	id, err := c.readInt("Enter call ID: ")
	if err != nil {
		return err
	}
	rec, ok := c.store.Get(id)
	if !ok {
		c.printf("No record with ID %d\n", id)
		return nil
	}
	c.println(Card(rec))
	return nil
}

func (c *Console) handleUpdate() error {
	id, err := c.readInt("Enter call ID to update: ")
	if err != nil {
		return err
	}
	rec, ok := c.store.Get(id)
	if !ok {
		c.printf("No record with ID %d\n", id)
		return nil
	}

	c.println("Leave a field empty to keep the current value.")
	answers := make([]string, 5)
	prompts := []string{
		fmt.Sprintf("New name [%s]: ", rec.CallerName),
		fmt.Sprintf("New phone [%s]: ", rec.ContactNumber),
		fmt.Sprintf("New description [%s]: ", rec.Description),
		fmt.Sprintf("New required services [%s]: ", rec.RequiredServices),
		fmt.Sprintf("New status (NEW/IN_PROGRESS/RESOLVED) [%s]: ", rec.Status),
	}
	for i, p := range prompts {
		if answers[i], err = c.readLine(p); err != nil {
			return err
		}
		answers[i] = strings.TrimSpace(answers[i])
	}

	patch := c.buildPatch(answers[0], answers[1], answers[2], answers[3], answers[4])
	updated, err := c.store.Update(id, patch)
	if err != nil && !errors.Is(err, store.ErrNotPersisted) {
		c.println(Error(err.Error()))
		return nil
	}
	c.reportPersist(err)
	c.println("Updated:\n" + Card(updated))
	return nil
}

// buildPatch turns trimmed answers into a patch. Empty answers keep the old
// value; an invalid phone or status is reported and keeps the old value too.
func (c *Console) buildPatch(name, phone, description, services, status string) call.Patch {
	var p call.Patch
	if name != "" {
		p.CallerName = &name
	}
	if phone != "" {
		if err := call.ValidateContact(phone); err != nil {
			c.println(Notice("Phone must be digits only (min 3). Keeping old value."))
		} else {
			p.ContactNumber = &phone
		}
	}
	if description != "" {
		p.Description = &description
	}
	if services != "" {
		p.RequiredServices = &services
	}
	if status != "" {
		if st, err := call.ParseStatusFold(status); err != nil {
			c.println(Notice("Invalid status. Keeping old value."))
		} else {
			p.Status = &st
		}
	}
	return p
}

func (c *Console) handleDelete() error {
	id, err := c.readInt("Enter call ID to delete: ")
	if err != nil {
		return err
	}
	removed, err := c.store.Delete(id)
	if !removed {
		c.printf("No record with ID %d\n", id)
		return nil
	}
	c.reportPersist(err)
	c.printf("Deleted record %d\n", id)
	return nil
}

func (c *Console) handleList() {
	all := c.store.List()
	if len(all) == 0 {
		c.println("No emergency calls recorded.")
		return
	}
	c.println(List(all, "Total"))
}

func (c *Console) handleSearch(prompt, field string, search func(string) []call.Call) error {
	needle, err := c.readNonEmpty(prompt)
	if err != nil {
		return err
	}
	found := search(needle)
	if len(found) == 0 {
		c.printf("No matches for %s containing %q\n", field, needle)
		return nil
	}
	c.println(List(found, "Matches"))
	return nil
}

func (c *Console) reportPersist(err error) {
	if err != nil {
		c.println(Notice(fmt.Sprintf("Warning: change kept in memory but not saved: %v", err)))
	}
}

// --- input helpers ---

func (c *Console) readLine(prompt string) (string, error) {
	fmt.Fprint(c.out, prompt)
	if !c.in.Scan() {
		c.println("")
		return "", errEndOfInput
	}
	return c.in.Text(), nil
}

func (c *Console) readInt(prompt string) (int, error) {
	for {
		s, err := c.readLine(prompt)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err == nil {
			return n, nil
		}
		c.println("Please enter a valid number.")
	}
}

func (c *Console) readNonEmpty(prompt string) (string, error) {
	for {
		s, err := c.readLine(prompt)
		if err != nil {
			return "", err
		}
		if s = strings.TrimSpace(s); s != "" {
			return s, nil
		}
		c.println("Value cannot be empty.")
	}
}

func (c *Console) readPhone(prompt string) (string, error) {
	for {
		s, err := c.readLine(prompt)
		if err != nil {
			return "", err
		}
		s = strings.TrimSpace(s)
		if call.ValidateContact(s) == nil {
			return s, nil
		}
		c.println("Phone must be digits only (min 3).")
	}
}

func (c *Console) println(s string) {
	fmt.Fprintln(c.out, s)
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}
