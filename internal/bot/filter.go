package bot

// RoleCap is the most teammates allowed to share a role before the role stops
// being offered preferentially.
const RoleCap = 2

// RoleCount maps a role to how many teammates currently hold it.
type RoleCount map[string]int

// CountRoles tallies the non-empty roles of a team.
func CountRoles(roles []string) RoleCount {
	counts := make(RoleCount, len(roles))
	for _, r := range roles {
		if r != "" {
			counts[r]++
		}
	}
	return counts
}

// FilterRoles keeps the role options held by fewer than limit teammates,
// preserving their order.
func FilterRoles(roleOptions []string, counts RoleCount, limit int) []string {
	var kept []string
	for _, opt := range roleOptions {
		if counts[opt] < limit {
			kept = append(kept, opt)
		}
	}
	return kept
}
