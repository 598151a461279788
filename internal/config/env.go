package config

import (
	"strconv"
	"strings"
)

// ApplyEnv overrides cfg with the environment. Empty variables are ignored.
// NEO4J_* configure the development instance and PROD_NEO4J_* the
// production instance; AZURE_* select and configure the azure provider.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := strings.TrimSpace(getenv(k)); v != "" {
				*dst = v
			}
		}
	}
	num := func(dst *int, keys ...string) {
		for _, k := range keys {
			if v, err := strconv.Atoi(strings.TrimSpace(getenv(k))); err == nil {
				*dst = v
			}
		}
	}

	if getenv("AZURE_OPENAI_ENDPOINT") != "" {
		cfg.LLM.Provider = "azure"
	}
	str(&cfg.LLM.Provider, "LLM_PROVIDER")
	str(&cfg.LLM.Model, "AZURE_OPENAI_MODEL_NAME", "LLM_MODEL")
	str(&cfg.LLM.APIKey, "AZURE_OPENAI_API_KEY", "LLM_API_KEY")
	str(&cfg.LLM.BaseURL, "AZURE_OPENAI_ENDPOINT", "LLM_BASE_URL")
	str(&cfg.LLM.APIVersion, "AZURE_OPENAI_API_VERSION")
	str(&cfg.LLM.Deployment, "AZURE_DEPLOYMENT_NAME")
	num(&cfg.Extraction.ContextTokens, "AZURE_OPENAI_MODEL_MAX_TOKENS", "LLM_CONTEXT_TOKENS")

	instanceEnv(cfg, getenv, DevelopmentInstance, "")
	instanceEnv(cfg, getenv, ProductionInstance, "PROD_")
	str(&cfg.Graph.DefaultInstance, "GRAPH_DEFAULT_INSTANCE")

	str(&cfg.Archive.Backend, "ARCHIVE_BACKEND")
	str(&cfg.Archive.Dir, "ARCHIVE_DIR")
	str(&cfg.Archive.Bucket, "ARCHIVE_BUCKET")
	str(&cfg.Archive.Prefix, "ARCHIVE_PREFIX")
	str(&cfg.Archive.Region, "ARCHIVE_REGION", "AWS_REGION")
	str(&cfg.Archive.Endpoint, "ARCHIVE_ENDPOINT")
	str(&cfg.Archive.AccessKeyID, "ARCHIVE_ACCESS_KEY_ID")
	str(&cfg.Archive.SecretAccessKey, "ARCHIVE_SECRET_ACCESS_KEY")
	str(&cfg.Archive.CredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS")

	str(&cfg.Server.Port, "PORT")
	str(&cfg.Server.Mode, "GIN_MODE")
	str(&cfg.Log.Mode, "LOG_MODE")
}

func instanceEnv(cfg *Config, getenv func(string) string, name, prefix string) {
	uri := strings.TrimSpace(getenv(prefix + "NEO4J_CONNECTION_URI"))
	if uri == "" {
		uri = strings.TrimSpace(getenv(prefix + "NEO4J_URI"))
	}
	inst, exists := cfg.Graph.Instances[name]
	if uri == "" && !exists {
		return
	}
	if uri != "" {
		inst.URI = uri
	}
	if v := strings.TrimSpace(getenv(prefix + "NEO4J_USER")); v != "" {
		inst.User = v
	}
	if v := getenv(prefix + "NEO4J_PASSWORD"); v != "" {
		inst.Password = v
	}
	if v := strings.TrimSpace(getenv(prefix + "NEO4J_DATABASE")); v != "" {
		inst.Database = v
	}
	if cfg.Graph.Instances == nil {
		cfg.Graph.Instances = map[string]InstanceConfig{}
	}
	cfg.Graph.Instances[name] = inst
}
