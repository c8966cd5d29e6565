package main

type PortalConfig struct {
	BaseUrl           string  `json:"base_url"`
	TermId            string  `json:"term_id"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	TimeoutSeconds    int     `json:"timeout_seconds"`
	CloudflareBypass  bool    `json:"cloudflare_bypass"`
}

type ServerConfig struct {
	Port                     int    `json:"port"`
	StaticDir                string `json:"static_dir"`
	KeepAliveIntervalSeconds int    `json:"keep_alive_interval_seconds"`
	NameCacheSize            int    `json:"name_cache_size"`
	NameCacheTTLSeconds      int    `json:"name_cache_ttl_seconds"`
	PromptResponse           string `json:"prompt_response"`
}

type EnrollmentConfig struct {
	// a file path, ":memory:" or a libsql url
	Database string `json:"database"`
	HashKey  string `json:"hash_key"`
}

type Config struct {
	Portal     PortalConfig     `json:"portal"`
	Server     ServerConfig     `json:"server"`
	Enrollment EnrollmentConfig `json:"enrollment"`
}

func (c *Config) setDefaults() {
	if c.Portal.TermId == "" {
		c.Portal.TermId = "3202320"
	}
	if c.Portal.TimeoutSeconds == 0 {
		c.Portal.TimeoutSeconds = 30
	}
	if c.Server.Port == 0 {
		c.Server.Port = 4000
	}
	if c.Server.KeepAliveIntervalSeconds == 0 {
		c.Server.KeepAliveIntervalSeconds = 300
	}
	if c.Enrollment.Database == "" {
		c.Enrollment.Database = "<dev_state>/enrollment.db"
	}
}
