// Package config handles configuration loading for craftchat.
//
// Configuration is loaded from YAML files with environment variable
// expansion (${VAR_NAME} syntax), duration parsing for raw string fields,
// validation, and sensible defaults.
//
// Sections:
//
//	server:
//	  http_addr: ":8000"
//
//	database:
//	  path: "craftchat.db"
//
//	auth:
//	  api_key: "${CRAFTCHAT_API_KEY}"
//
//	ratelimit:
//	  limit: 10
//	  window: "60s"
//
//	agent:
//	  openai_api_key: "${OPENAI_API_KEY}"
//	  model: "gpt-4.1"
//
//	logging:
//	  level: "info"    # debug, info, warn, error
//	  format: "text"   # text, json
package config
