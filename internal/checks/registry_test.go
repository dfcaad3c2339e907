package checks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryKeepsRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(MFAComplianceCheck{})
	r.Register(AccessKeysCheck{})
	r.Register(ZombieUsersCheck{})

	all := r.All()
	assert.Equal(t, "IAM_MFA_COMPLIANCE", all[0].ID())
	assert.Equal(t, "IAM_ACCESS_KEYS", all[1].ID())
	assert.Equal(t, "IAM_ZOMBIE_USERS", all[2].ID())
}

func TestRegistryPanicsOnDuplicateID(t *testing.T) {
	r := NewRegistry()
	r.Register(MFAComplianceCheck{})

	assert.Panics(t, func() {
		r.Register(MFAComplianceCheck{})
	})
}
