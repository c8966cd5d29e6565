package devenv

// PortalTestConfig is read from dev/.state/portal_config.json5 by tests that
// talk to a real portal.
type PortalTestConfig struct {
	BaseUrl  string `json:"base_url"`
	TermId   string `json:"term_id"`
	Username string `json:"username"`
	Password string `json:"password"`
	// Course is a course code known to exist in the term.
	Course string `json:"course"`
}
