package config

// Config is the top-level YAML structure.
type Config struct {
	Version   string        `yaml:"version"`
	Server    ServerConf    `yaml:"server"`
	Engine    EngineConf    `yaml:"engine"`
	Pipeline  PipelineConf  `yaml:"pipeline"`
	Policies  []PolicyDef   `yaml:"policies"`
	Narrative NarrativeConf `yaml:"narrative"`
	Store     StoreConf     `yaml:"store"`
}

type ServerConf struct {
	Addr string `yaml:"addr"`
}

// EngineConf holds tunable concurrency settings.
type EngineConf struct {
	Workers         int `yaml:"workers"`
	QueueDepth      int `yaml:"queue_depth"`
	RecordTimeoutMs int `yaml:"record_timeout_ms"`
}

// PipelineConf selects and orders the rules applied to every record.
type PipelineConf struct {
	// Order lists rule names in evaluation order; empty means the built-in order.
	// Policy rules not named here run after the listed rules.
	Order []string `yaml:"order"`
	// Disabled rules are dropped from Order.
	Disabled []string `yaml:"disabled"`
	// Today pins the reference day (YYYY-MM-DD) for date checks; empty uses the
	// current UTC day when the pipeline is built.
	Today    string `yaml:"today"`
	OCRNames bool   `yaml:"ocr_names"`
	OCRDates bool   `yaml:"ocr_dates"`
}

// PolicyDef is a configured rejection rule over record fields.
type PolicyDef struct {
	Name       string `yaml:"name"`
	Enabled    bool   `yaml:"enabled"`
	Expression string `yaml:"expression"`
	Reason     string `yaml:"reason"`
}

type NarrativeConf struct {
	Enabled     bool    `yaml:"enabled"`
	Provider    string  `yaml:"provider"` // openai | azure
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	APIVersion  string  `yaml:"api_version"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Temperature float32 `yaml:"temperature"`
	TimeoutMs   int     `yaml:"timeout_ms"`

	Cache   CacheConf   `yaml:"cache"`
	Breaker BreakerConf `yaml:"breaker"`
}

type CacheConf struct {
	Enabled     bool   `yaml:"enabled"`
	Addr        string `yaml:"addr"`
	PasswordEnv string `yaml:"password_env"`
	DB          int    `yaml:"db"`
	TTLSeconds  int    `yaml:"ttl_seconds"`
}

type BreakerConf struct {
	FailureThreshold int `yaml:"failure_threshold"`
	SuccessThreshold int `yaml:"success_threshold"`
	CooldownMs       int `yaml:"cooldown_ms"`
}

// StoreConf picks where decisions are kept.
type StoreConf struct {
	Driver string `yaml:"driver"` // memory | postgres
	DSNEnv string `yaml:"dsn_env"`
}
