package config

// EnvVarMapping maps config paths to the environment variables that override them.
// Earlier names win when several are set. The unprefixed names are the ones
// existing deployments already export.
var EnvVarMapping = map[string][]string{
	"database.driver": {"TRACKR_DB_DRIVER"},
	"database.path":   {"TRACKR_DB_PATH"},
	"database.dsn":    {"TRACKR_DB_DSN", "DATABASE_URL"},

	"roadmap.path":          {"TRACKR_ROADMAP_PATH", "ROADMAP_PATH"},
	"roadmap.template_path": {"TRACKR_TEMPLATE_PATH", "TEMPLATE_PATH"},
	"roadmap.search_root":   {"TRACKR_ROADMAP_SEARCH_ROOT", "ROADMAP_SEARCH_ROOT"},

	"completion.provider":    {"TRACKR_COMPLETION_PROVIDER"},
	"completion.model":       {"TRACKR_COMPLETION_MODEL", "OPENAI_MODEL"},
	"completion.api_key":     {"TRACKR_COMPLETION_API_KEY", "OPENAI_API_KEY"},
	"completion.base_url":    {"TRACKR_COMPLETION_BASE_URL"},
	"completion.timeout":     {"TRACKR_COMPLETION_TIMEOUT"},
	"completion.temperature": {"TRACKR_COMPLETION_TEMPERATURE"},

	"server.host": {"TRACKR_HOST"},
	"server.port": {"TRACKR_PORT"},

	"log.level":  {"TRACKR_LOG_LEVEL"},
	"log.format": {"TRACKR_LOG_FORMAT"},
}
