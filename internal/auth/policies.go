package auth

import (
	"fmt"

	"pathwiki/internal/logger"

	"github.com/casbin/casbin/v2"
)

// SeedDefaultPolicies ensures that the application has a baseline set of
// authorization rules. It checks if each policy exists before adding it,
// making the operation idempotent and safe to run on every start.
func SeedDefaultPolicies(e casbin.IEnforcer, log logger.Logger) {
	log.Info("Seeding default authorization policies...")

	// The enforcer only guards the edit routes: viewing, history, and the
	// account routes are open to everyone, while creating or editing page
	// content requires a logged-in user.
	policies := [][]string{
		{"user", "/_edit/*", "(GET)|(POST)"},
	}
	for _, p := range policies {
		if has, _ := e.HasPolicy(p); !has {
			if _, err := e.AddPolicy(p); err != nil {
				log.Error(err, fmt.Sprintf("Failed to add policy %v", p))
			}
		}
	}

	log.Info("Policy seeding complete.")
}
