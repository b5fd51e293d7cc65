package auth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hugh/go-invite/internal/database/models"
)

// OrganizationInput is one affiliation record as submitted by a client.
type OrganizationInput struct {
	Name      string     `json:"name"`
	Role      string     `json:"role"`
	ValidTill *time.Time `json:"valid_till,omitempty"`
}

var jsonNull = []byte("null")

// DecodeOrganizations decodes an optional organizations value. A nil result
// means the value was omitted (absent or null); a non-nil pointer to an empty
// slice means an explicit empty list. Anything that is not a list of records
// fails with ErrMalformedOrganizations, before any write happens.
func DecodeOrganizations(raw json.RawMessage) (*[]OrganizationInput, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, jsonNull) {
		return nil, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOrganizations, err)
	}

	orgs := make([]OrganizationInput, 0, len(items))
	for i, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			return nil, fmt.Errorf("%w: entry %d is not a record", ErrMalformedOrganizations, i)
		}

		var org OrganizationInput
		if err := json.Unmarshal(item, &org); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrMalformedOrganizations, i, err)
		}
		orgs = append(orgs, org)
	}

	return &orgs, nil
}

// organizationModels converts decoded input into rows, rejecting entries
// that miss a required column.
func organizationModels(inputs []OrganizationInput) ([]models.Organization, error) {
	orgs := make([]models.Organization, 0, len(inputs))
	for i, in := range inputs {
		name := strings.TrimSpace(in.Name)
		role := strings.TrimSpace(in.Role)
		if name == "" {
			return nil, missingField(fmt.Sprintf("organizations[%d].name", i))
		}
		if role == "" {
			return nil, missingField(fmt.Sprintf("organizations[%d].role", i))
		}

		org := models.Organization{Name: name, Role: role}
		if in.ValidTill != nil {
			till := in.ValidTill.UTC()
			org.ValidTill = &till
		}
		orgs = append(orgs, org)
	}
	return orgs, nil
}
