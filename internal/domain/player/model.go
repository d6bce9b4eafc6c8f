package player

import "strings"

type Role string

const (
	RoleBatsman      Role = "batsman"
	RoleBowler       Role = "bowler"
	RoleAllRounder   Role = "all_rounder"
	RoleWicketKeeper Role = "wicket_keeper"
)

type Player struct {
	ID         string
	ProviderID string
	Name       string
	Role       Role
	TeamName   string
}

// roleVocabulary maps provider position substrings to the closed role
// enum. Longer, more specific tokens are listed first so "wk-batsman"
// resolves to keeper rather than batsman.
var roleVocabulary = []struct {
	token string
	role  Role
}{
	{"wicketkeeper", RoleWicketKeeper},
	{"wicket keeper", RoleWicketKeeper},
	{"keeper", RoleWicketKeeper},
	{"keep", RoleWicketKeeper},
	{"wk", RoleWicketKeeper},
	{"all rounder", RoleAllRounder},
	{"all-rounder", RoleAllRounder},
	{"allrounder", RoleAllRounder},
	{"all", RoleAllRounder},
	{"bowl", RoleBowler},
	{"bat", RoleBatsman},
}

// RoleFromProvider resolves the provider's free-text position string to
// a role. Unknown vocabulary defaults to batsman.
func RoleFromProvider(position string) Role {
	normalized := strings.ToLower(strings.TrimSpace(position))
	if normalized == "" {
		return RoleBatsman
	}
	for _, entry := range roleVocabulary {
		if strings.Contains(normalized, entry.token) {
			return entry.role
		}
	}
	return RoleBatsman
}

// IsBowlingRole reports whether economy-based bonuses apply to the role.
func (r Role) IsBowlingRole() bool {
	return r == RoleBowler || r == RoleAllRounder
}
