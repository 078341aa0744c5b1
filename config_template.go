package main

const configTemplate = `# {{ index .Help "api-key" }}
# api-key: sk-or-...
# {{ index .Help "base-url" }}
base-url: {{ .Config.BaseURL }}
# {{ index .Help "timeout" }}
timeout: {{ .Config.Timeout }}
# {{ index .Help "max-retries" }}
max-retries: {{ .Config.MaxRetries }}
# {{ index .Help "cache" }}
cache: {{ .Config.CacheEnabled }}
# {{ index .Help "cache-ttl" }}
cache-ttl: {{ .Config.CacheTTL }}
# {{ index .Help "cache-path" }}
# cache-path: ~/.cache/openrouter-inspector
# {{ index .Help "concurrency" }}
concurrency: {{ .Config.Concurrency }}
# {{ index .Help "format" }}
format: {{ .Config.Format }}
# {{ index .Help "quiet" }}
quiet: {{ .Config.Quiet }}
`
