package tunnel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStartReportsAgentMissingWhenBinaryNotInstalled(t *testing.T) {
	a := &Agent{
		kind:   KindControlAPI,
		binary: "definitely-not-a-real-binary-xyz",
		argsFn: func(port int) []string { return nil },
	}

	result := a.Start(3000)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "not installed")
}

func TestStatusReportsNotRunningBeforeStart(t *testing.T) {
	a := NewNgrokAgent()
	st := a.Status()
	assert.False(t, st.Running)
	assert.Empty(t, st.URL)
}

func TestStopIsIdempotentWhenNotRunning(t *testing.T) {
	a := NewCloudflareAgent()
	assert.NoError(t, a.Stop())
	assert.NoError(t, a.Stop())
}

func TestEnsureDoesNothingWhenDisabled(t *testing.T) {
	a := NewNgrokAgent()
	result := a.Ensure(3000, false)
	assert.False(t, result.Success)
	assert.False(t, a.Status().Running)
}

func TestCloudflareHostnameRegexMatchesQuickTunnelLine(t *testing.T) {
	line := "2026-07-29T00:00:00Z INF |  https://random-words-here.trycloudflare.com                                     |"
	match := cloudflareHostnameRe.FindString(line)
	assert.Equal(t, "https://random-words-here.trycloudflare.com", match)
}

func TestEffectivePortPrefersAdminPortWhenQueueEnabled(t *testing.T) {
	assert.Equal(t, 1338, EffectivePort(1338, 3000, true))
	assert.Equal(t, 3000, EffectivePort(1338, 3000, false))
}
