package organisation

import (
	"strings"

	"github.com/wolfeidau/orgstore/internal/models"
)

// CollateUsers gathers the organisation submitter, the management contact and the
// submitter of every registration and accreditation, deduplicated by
// case-insensitive email. The first occurrence of an email wins.
func CollateUsers(org *models.Organisation) []models.User {
	var users []models.User
	seen := make(map[string]struct{})

	add := func(contact *models.ContactDetails) {
		if contact == nil {
			return
		}

		key := strings.ToLower(strings.TrimSpace(contact.Email))
		if key == "" {
			return
		}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}

		users = append(users, models.User{
			FullName: contact.FullName,
			Email:    contact.Email,
		})
	}

	add(&org.SubmitterContactDetails)
	add(org.ManagementContactDetails)

	for _, reg := range org.Registrations {
		add(reg.SubmitterContact())
	}
	for _, acc := range org.Accreditations {
		add(acc.SubmitterContact())
	}

	return users
}
