package model

// LinkRole says why a link was checked
type LinkRole string

const (
	LinkRoleSubmit      LinkRole = "submit"
	LinkRoleCredibility LinkRole = "credibility"
	LinkRoleCTA         LinkRole = "cta"
)

// LinkStatus is the reachability of one URL in a draft
type LinkStatus struct {
	URL             string   `json:"url"`
	Role            LinkRole `json:"role"`
	Reachable       bool     `json:"reachable"`
	StatusCode      int      `json:"status_code,omitempty"`
	Dead            bool     `json:"dead"` // 404, 410 or unresolvable
	RedirectURL     string   `json:"redirect_url,omitempty"`
	BlockedByRobots bool     `json:"blocked_by_robots,omitempty"`
	Attempts        int      `json:"attempts"`
	Error           string   `json:"error,omitempty"`
}
