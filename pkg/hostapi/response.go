package hostapi

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cameramfd/extension/internal/util"
)

// FormatResponse renders a dispatch result for the host.
//
//	["ok"]              nil result
//	["ok", "text"]      string result
//	["ok", <json>]      any other result
//	["error", "msg"]    error
func FormatResponse(result any, err error) string {
	if err != nil {
		return fmt.Sprintf(`["error", %s]`, util.JSONString(err.Error()))
	}
	if result == nil {
		return `["ok"]`
	}
	if s, ok := result.(string); ok {
		return fmt.Sprintf(`["ok", %s]`, util.JSONString(s))
	}
	data, mErr := json.Marshal(result)
	if mErr != nil {
		return fmt.Sprintf(`["error", %s]`, util.JSONString(mErr.Error()))
	}
	return fmt.Sprintf(`["ok", %s]`, data)
}

// ParseLine splits a host call of the form COMMAND|arg|arg into its command and
// arguments. Surrounding whitespace of the line is ignored and quoted
// arguments are unquoted.
func ParseLine(line string) (string, []string) {
	line = strings.TrimSpace(line)
	parts := strings.Split(line, "|")
	if len(parts) == 1 {
		return parts[0], nil
	}
	args := parts[1:]
	for i, a := range args {
		args[i] = util.Unquote(a)
	}
	return parts[0], args
}
