package logger

// Output controls what categories of information are shown at each verbosity level.
//
// Unlike log levels (which filter by severity), output categories control
// WHAT types of information are displayed regardless of severity.
//
// Verbosity Levels:
//
//	0 (default) - User-facing output only: results, errors with hints
//	1 (-v)      - + Progress, startup info, tunnel status, process status
//	2 (-vv)     - + Admission decisions, timing, config loaded, HTTP requests
//	3 (-vvv)    - + Process stdout/stderr, websocket fan-out, internal flow
//	4 (-vvvv)   - + Full request/response bodies, traffic record dumps

// OutputCategory defines a category of output that can be enabled/disabled
type OutputCategory int

const (
	// Level 0 (default) - Always shown
	OutputResults    OutputCategory = iota // Command output, config summaries
	OutputErrors                           // Errors with hints and resolution steps
	OutputUserStatus                       // Final success/failure status

	// Level 1 (-v) - Informational
	OutputProgress      // Progress indicators (e.g., "tunnel connecting")
	OutputStartup       // Startup banners, config summary
	OutputProcessStatus // Supervised process started/stopped/crashed
	OutputTunnelStatus  // Tunnel connected/disconnected, public URL
	OutputOperationInfo // High-level operation summaries

	// Level 2 (-vv) - Detailed
	OutputAdmission    // Admission/promotion/reap decisions
	OutputTiming       // Operation timing (e.g., "forward took 42ms")
	OutputConfig       // Config values loaded/applied
	OutputHTTPRequests // Incoming proxy request URLs and methods
	OutputHTTPStatus   // Proxy response status codes
	OutputBroadcast    // Broadcast hub subscribe/unsubscribe events

	// Level 3 (-vvv) - Debug
	OutputProcessStdout // Supervised process stdout
	OutputProcessStderr // Supervised process stderr
	OutputWebsocket     // Websocket connect/close, ping/pong
	OutputInternalFlow  // Internal operation flow (function entry/exit)

	// Level 4 (-vvvv) - Full dump
	OutputHTTPBody    // Full HTTP request/response bodies
	OutputTrafficDump // Full traffic-recorder entries
	OutputDataDump    // Full data structure contents
)

// categoryLevels maps each output category to its minimum verbosity level
var categoryLevels = map[OutputCategory]int{
	// Level 0 - Always shown
	OutputResults:    VerbosityUser,
	OutputErrors:     VerbosityUser,
	OutputUserStatus: VerbosityUser,

	// Level 1 - Informational
	OutputProgress:      VerbosityInfo,
	OutputStartup:       VerbosityInfo,
	OutputProcessStatus: VerbosityInfo,
	OutputTunnelStatus:  VerbosityInfo,
	OutputOperationInfo: VerbosityInfo,

	// Level 2 - Detailed
	OutputAdmission:    VerbosityDebug,
	OutputTiming:       VerbosityDebug,
	OutputConfig:       VerbosityDebug,
	OutputHTTPRequests: VerbosityDebug,
	OutputHTTPStatus:   VerbosityDebug,
	OutputBroadcast:    VerbosityDebug,

	// Level 3 - Debug
	OutputProcessStdout: VerbosityTrace,
	OutputProcessStderr: VerbosityTrace,
	OutputWebsocket:     VerbosityTrace,
	OutputInternalFlow:  VerbosityTrace,

	// Level 4 - Full dump
	OutputHTTPBody:    VerbosityAll,
	OutputTrafficDump: VerbosityAll,
	OutputDataDump:    VerbosityAll,
}

// ShouldOutput returns true if the given category should be shown at the given verbosity
func ShouldOutput(verbosity int, category OutputCategory) bool {
	minLevel, ok := categoryLevels[category]
	if !ok {
		// Unknown category, default to highest verbosity required
		return verbosity >= VerbosityAll
	}
	return verbosity >= minLevel
}

// categoryNames provides human-readable names for output categories
var categoryNames = map[OutputCategory]string{
	OutputResults:       "results",
	OutputErrors:        "errors",
	OutputUserStatus:    "status",
	OutputProgress:      "progress",
	OutputStartup:       "startup",
	OutputProcessStatus: "process-status",
	OutputTunnelStatus:  "tunnel-status",
	OutputOperationInfo: "operation-info",
	OutputAdmission:     "admission",
	OutputTiming:        "timing",
	OutputConfig:        "config",
	OutputHTTPRequests:  "http-requests",
	OutputHTTPStatus:    "http-status",
	OutputBroadcast:     "broadcast",
	OutputProcessStdout: "process-stdout",
	OutputProcessStderr: "process-stderr",
	OutputWebsocket:     "websocket",
	OutputInternalFlow:  "internal-flow",
	OutputHTTPBody:      "http-body",
	OutputTrafficDump:   "traffic-dump",
	OutputDataDump:      "data-dump",
}

// CategoryName returns the human-readable name for an output category
func CategoryName(category OutputCategory) string {
	if name, ok := categoryNames[category]; ok {
		return name
	}
	return "unknown"
}

// EnabledCategories returns all output categories enabled at the given verbosity
func EnabledCategories(verbosity int) []OutputCategory {
	var enabled []OutputCategory
	for cat, minLevel := range categoryLevels {
		if verbosity >= minLevel {
			enabled = append(enabled, cat)
		}
	}
	return enabled
}

// VerbosityDescription returns a description of what's shown at each level
func VerbosityDescription(verbosity int) string {
	switch verbosity {
	case VerbosityUser:
		return "results and errors only"
	case VerbosityInfo:
		return "results, errors, progress, process/tunnel status"
	case VerbosityDebug:
		return "above + admission decisions, timing, config"
	case VerbosityTrace:
		return "above + process stdio, websocket events"
	case VerbosityAll:
		return "above + full bodies, traffic dumps"
	default:
		if verbosity > VerbosityAll {
			return "maximum verbosity"
		}
		return "unknown verbosity level"
	}
}

// Process output helpers

// ShouldShowProcessStdout returns true if supervised-process stdout should be forwarded
func ShouldShowProcessStdout(verbosity int) bool {
	return ShouldOutput(verbosity, OutputProcessStdout)
}

// ShouldShowProcessStderr returns true if supervised-process stderr should be forwarded
func ShouldShowProcessStderr(verbosity int) bool {
	return ShouldOutput(verbosity, OutputProcessStderr)
}

// ShouldShowAdmission returns true if admission/promotion decisions should be displayed
func ShouldShowAdmission(verbosity int) bool {
	return ShouldOutput(verbosity, OutputAdmission)
}

// Timing helpers

// SlowThresholdMS is the threshold in milliseconds above which timing is always shown
const SlowThresholdMS = 100

// ShouldShowTiming returns true if timing info should be displayed.
// Shows if: verbosity >= 2 (-vv) OR operation exceeded slow threshold.
func ShouldShowTiming(verbosity int, durationMS int64) bool {
	if durationMS >= SlowThresholdMS {
		return true // Always show slow operations
	}
	return ShouldOutput(verbosity, OutputTiming)
}

// ShouldShowTimingAlways returns true if timing should always be shown (slow operation)
func ShouldShowTimingAlways(durationMS int64) bool {
	return durationMS >= SlowThresholdMS
}
