// Package call defines the core domain types for emergency call reports.
package call

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// TimeLayout is the local date-time layout used for CreatedAt in the data
// file and in JSON output (ISO-8601, no offset).
const TimeLayout = "2006-01-02T15:04:05"

// Call represents one reported emergency call.
type Call struct {
	ID               int       `json:"id"`                // Assigned by the store, never reused
	CallerName       string    `json:"caller_name"`       // Required
	ContactNumber    string    `json:"contact_number"`    // Digits only, min 3
	Description      string    `json:"description"`       // What happened
	RequiredServices string    `json:"required_services"` // e.g. "fire, police"
	CreatedAt        time.Time `json:"created_at"`        // Set once at creation
	Status           Status    `json:"status"`            // NEW, IN_PROGRESS, RESOLVED
}

// callJSON mirrors Call with CreatedAt rendered in TimeLayout.
type callJSON struct {
	ID               int    `json:"id"`
	CallerName       string `json:"caller_name"`
	ContactNumber    string `json:"contact_number"`
	Description      string `json:"description"`
	RequiredServices string `json:"required_services"`
	CreatedAt        string `json:"created_at"`
	Status           Status `json:"status"`
}

// MarshalJSON renders CreatedAt without a zone offset, matching the data file.
func (c Call) MarshalJSON() ([]byte, error) {
	return json.Marshal(callJSON{
		ID:               c.ID,
		CallerName:       c.CallerName,
		ContactNumber:    c.ContactNumber,
		Description:      c.Description,
		RequiredServices: c.RequiredServices,
		CreatedAt:        c.CreatedAt.Format(TimeLayout),
		Status:           c.Status,
	})
}

// UnmarshalJSON parses CreatedAt in local time.
func (c *Call) UnmarshalJSON(data []byte) error {
	var raw callJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	created, err := time.ParseInLocation(TimeLayout, raw.CreatedAt, time.Local)
	if err != nil {
		return fmt.Errorf("parsing created_at: %w", err)
	}
	*c = Call{
		ID:               raw.ID,
		CallerName:       raw.CallerName,
		ContactNumber:    raw.ContactNumber,
		Description:      raw.Description,
		RequiredServices: raw.RequiredServices,
		CreatedAt:        created,
		Status:           raw.Status,
	}
	return nil
}

// ContactPattern is the rule for contact numbers: digits only, at least three.
var ContactPattern = regexp.MustCompile(`^\d{3,}$`)

// Validation errors.
var (
	ErrEmptyName        = errors.New("caller name is required")
	ErrInvalidContact   = errors.New("contact number must be digits only (min 3)")
	ErrEmptyDescription = errors.New("description is required")
	ErrEmptyServices    = errors.New("required services is required")
	ErrInvalidStatus    = errors.New("status must be one of NEW, IN_PROGRESS, RESOLVED")
)

// ValidationError reports which field failed a business rule.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err carries a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ValidateContact checks the digits-only, min-length-3 rule.
func ValidateContact(contact string) error {
	if !ContactPattern.MatchString(contact) {
		return &ValidationError{Field: "contact_number", Err: ErrInvalidContact}
	}
	return nil
}

// ValidateForCreate validates the caller-supplied fields of a new call.
func ValidateForCreate(name, contact, description, services string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: "caller_name", Err: ErrEmptyName}
	}
	if err := ValidateContact(contact); err != nil {
		return err
	}
	if strings.TrimSpace(description) == "" {
		return &ValidationError{Field: "description", Err: ErrEmptyDescription}
	}
	if strings.TrimSpace(services) == "" {
		return &ValidationError{Field: "required_services", Err: ErrEmptyServices}
	}
	return nil
}

// Patch holds optional field updates. Nil fields are left unchanged.
// ID and CreatedAt are not patchable.
type Patch struct {
	CallerName       *string
	ContactNumber    *string
	Description      *string
	RequiredServices *string
	Status           *Status
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.CallerName == nil && p.ContactNumber == nil && p.Description == nil &&
		p.RequiredServices == nil && p.Status == nil
}

// Validate checks every set field. Text fields may not be blank.
func (p Patch) Validate() error {
	if p.CallerName != nil && strings.TrimSpace(*p.CallerName) == "" {
		return &ValidationError{Field: "caller_name", Err: ErrEmptyName}
	}
	if p.ContactNumber != nil {
		if err := ValidateContact(*p.ContactNumber); err != nil {
			return err
		}
	}
	if p.Description != nil && strings.TrimSpace(*p.Description) == "" {
		return &ValidationError{Field: "description", Err: ErrEmptyDescription}
	}
	if p.RequiredServices != nil && strings.TrimSpace(*p.RequiredServices) == "" {
		return &ValidationError{Field: "required_services", Err: ErrEmptyServices}
	}
	if p.Status != nil && !p.Status.Valid() {
		return &ValidationError{Field: "status", Err: ErrInvalidStatus}
	}
	return nil
}

// Apply returns a copy of c with the patch applied. It does not validate.
func (p Patch) Apply(c Call) Call {
	if p.CallerName != nil {
		c.CallerName = *p.CallerName
	}
	if p.ContactNumber != nil {
		c.ContactNumber = *p.ContactNumber
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.RequiredServices != nil {
		c.RequiredServices = *p.RequiredServices
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	return c
}
