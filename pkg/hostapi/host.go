package hostapi

import (
	"fmt"
	"strconv"
	"time"

	"github.com/cameramfd/extension/internal/dispatcher"
	"github.com/cameramfd/extension/internal/util"
)

// Host routes host calls to a dispatcher and formats the replies.
type Host struct {
	version    string
	dispatcher *dispatcher.Dispatcher
}

func NewHost(version string, d *dispatcher.Dispatcher) *Host {
	return &Host{version: version, dispatcher: d}
}

// Version is returned to the host on load.
func (h *Host) Version() string {
	return h.version
}

// Call handles one COMMAND|arg|arg line. ":TIMESTAMP:" is answered directly.
func (h *Host) Call(line string) string {
	command, args := ParseLine(line)
	if command == ":TIMESTAMP:" {
		return strconv.FormatInt(time.Now().UTC().UnixNano(), 10)
	}

	if h.dispatcher == nil || !h.dispatcher.HasHandler(command) {
		return fmt.Sprintf(`["error", %s, "no handler registered"]`, util.JSONString(command))
	}

	result, err := h.dispatcher.Dispatch(dispatcher.Event{
		Command:   command,
		Args:      args,
		Timestamp: time.Now(),
	})
	return FormatResponse(result, err)
}
