package arga

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"
)

func prettyJSON(raw []byte) (string, bool) {
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return "", false
	}
	pretty, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", false
	}
	return string(pretty), true
}

func logPrettyJSON(logger *log.Logger, level log.Level, message string, raw []byte) {
	if len(raw) == 0 {
		logger.Log(level, message)
		return
	}
	pretty, ok := prettyJSON(raw)
	if !ok {
		// Fallback to raw string if JSON parsing fails
		logger.Log(level, message, "raw", string(raw))
		return
	}
	logger.Log(level, message+"\n"+pretty)
}

func logDebugJSON(message string, raw []byte) {
	logPrettyJSON(log.Default(), log.DebugLevel, message, raw)
}

// formatErrorWithJSON creates an error message with a pretty-printed JSON body
func formatErrorWithJSON(baseMessage string, body string) error {
	pretty, ok := prettyJSON([]byte(body))
	if !ok {
		return fmt.Errorf("%s: %s", baseMessage, body)
	}
	return fmt.Errorf("%s:\n%s", baseMessage, pretty)
}
