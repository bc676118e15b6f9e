package policy

// Entry is one sidebar navigation item. Entries with no AllowedRoles are
// visible to anyone holding a valid membership; restricted entries require
// the role tag to be in the set.
type Entry struct {
	Href         string `json:"href"`
	Label        string `json:"label"`
	AllowedRoles []Role `json:"allowed_roles,omitempty"`
}

// FilterEntries returns the ordered sublist of entries visible to the role
// tag. An empty/unknown role (deny, no membership) yields only unrestricted
// entries so the shell still renders minimally. This is a filter, not a
// re-sort: input order is preserved.
func FilterEntries(role Role, entries []Entry) []Entry {
	filtered := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if len(entry.AllowedRoles) == 0 {
			filtered = append(filtered, entry)
			continue
		}
		for _, allowed := range entry.AllowedRoles {
			if allowed == role {
				filtered = append(filtered, entry)
				break
			}
		}
	}
	return filtered
}

// DefaultEntries is the product shell's sidebar in display order. Member
// management and settings are admin-only; everything else is visible to any
// membership and scoped by the policy when opened.
func DefaultEntries() []Entry {
	return []Entry{
		{Href: "/dashboard", Label: "Dashboard"},
		{Href: "/tasks", Label: "Tasks"},
		{Href: "/calendar", Label: "Calendar"},
		{Href: "/gantt", Label: "Gantt", AllowedRoles: []Role{RoleAdmin, RoleMember}},
		{Href: "/chat", Label: "Chat", AllowedRoles: []Role{RoleAdmin, RoleMember}},
		{Href: "/surveys", Label: "Surveys"},
		{Href: "/shopping", Label: "Shopping List"},
		{Href: "/members", Label: "Members", AllowedRoles: []Role{RoleAdmin}},
		{Href: "/settings", Label: "Settings", AllowedRoles: []Role{RoleAdmin}},
	}
}
