package output

import (
	"os"
	"path/filepath"
)

// GetLogFilePath returns the path to the log file.
// If ARKFEED_LOG_FILE is set, uses that path ("-" disables file logging).
// Otherwise, uses ~/.arkfeed/logs/arkfeed.log, outside any repository the job commits.
func GetLogFilePath() string {
	if customPath := os.Getenv("ARKFEED_LOG_FILE"); customPath != "" {
		if customPath == "-" {
			return ""
		}
		return customPath
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(homeDir, ".arkfeed", "logs", "arkfeed.log")
}
