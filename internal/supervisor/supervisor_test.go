package supervisor

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thehillbeyondthisone/BackendBuddy/internal/broadcast"
)

func TestContainsDangerousCharsRejectsShellMetacharacters(t *testing.T) {
	cases := []string{
		"npm start && $(rm -rf /)",
		"echo `whoami`",
		"cat a | grep b",
		"echo hi > out.txt",
		"echo hi < in.txt",
		"echo a; echo b",
		"echo a\nb",
	}
	for _, c := range cases {
		assert.True(t, ContainsDangerousChars(c), "expected rejection for %q", c)
	}
	assert.False(t, ContainsDangerousChars("npm start -- --port 3000"))
}

func TestStartRejectsNonexistentDirectory(t *testing.T) {
	s := New(broadcast.New())
	_, err := s.Start("/no/such/directory", "echo hi", "", "")
	assert.Error(t, err)
}

func TestStartRejectsSameDirectoryFrontendCollapse(t *testing.T) {
	dir := t.TempDir()
	s := New(broadcast.New())
	_, err := s.Start(dir, "sleep 5", dir, "sleep 5")
	require.Error(t, err)
	s.Stop()
}

func TestStartStreamsLogsAndStopTerminates(t *testing.T) {
	if os.Getenv("CI_NO_SUBPROCESS") != "" {
		t.Skip("subprocess spawning disabled")
	}
	dir := t.TempDir()
	hub := broadcast.New()
	sub, err := hub.SubscribeLogs()
	require.NoError(t, err)
	defer sub.Close()

	s := New(hub)
	result, err := s.Start(dir, "echo hello-world", "", "")
	require.NoError(t, err)
	assert.NotZero(t, result.BackendPID)

	select {
	case line := <-sub.C:
		assert.Contains(t, line, "hello-world")
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for log line")
	}

	require.NoError(t, s.Stop())
}

func TestStopIsIdempotentWhenNothingRunning(t *testing.T) {
	s := New(broadcast.New())
	assert.NoError(t, s.Stop())
	assert.NoError(t, s.Stop())
}

func TestStartFailsWhenAlreadyRunning(t *testing.T) {
	if os.Getenv("CI_NO_SUBPROCESS") != "" {
		t.Skip("subprocess spawning disabled")
	}
	dir := t.TempDir()
	s := New(broadcast.New())
	_, err := s.Start(dir, "sleep 5", "", "")
	require.NoError(t, err)
	defer s.Stop()

	_, err = s.Start(dir, "sleep 5", "", "")
	assert.Error(t, err)
}

func TestRecentLogsClampsToAvailableLines(t *testing.T) {
	s := New(nil)
	for i := 0; i < 5; i++ {
		s.appendRing("line")
	}
	assert.Len(t, s.RecentLogs(100), 5)
	assert.Len(t, s.RecentLogs(2), 2)
}

func TestStatusReportsNotRunningWhenNothingStarted(t *testing.T) {
	s := New(broadcast.New())
	st := s.Status()
	assert.False(t, st.App.Running)
	assert.False(t, st.Web.Running)
}
