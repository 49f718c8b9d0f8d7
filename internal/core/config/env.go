package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: KEXTDIFF_[SECTION]_[KEY] (e.g., KEXTDIFF_REPORT_PREVIEW_LIMIT).
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.Paths.OutputRoot, "KEXTDIFF_PATHS_OUTPUT_ROOT")
	setEnvString(&cfg.Scan.DescriptorName, "KEXTDIFF_SCAN_DESCRIPTOR_NAME")
	setEnvBool(&cfg.Graph.ParallelEdges, "KEXTDIFF_GRAPH_PARALLEL_EDGES")
	setEnvString(&cfg.Output.Report, "KEXTDIFF_OUTPUT_REPORT")
	setEnvInt(&cfg.Report.PreviewLimit, "KEXTDIFF_REPORT_PREVIEW_LIMIT")
	setEnvInt(&cfg.Report.TopLinked, "KEXTDIFF_REPORT_TOP_LINKED")
	setEnvBool(&cfg.Report.Collapsible, "KEXTDIFF_REPORT_COLLAPSIBLE")
	setEnvString(&cfg.Observability.MetricsFile, "KEXTDIFF_OBSERVABILITY_METRICS_FILE")
	setEnvString(&cfg.Observability.OTLPEndpoint, "KEXTDIFF_OBSERVABILITY_OTLP_ENDPOINT")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}
