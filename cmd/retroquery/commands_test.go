package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cookedzera/RetroQuery/internal/domain"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	execParams = nil
	execCompact = false
	intentsJSON = false
	err := rootCmd.Execute()
	return out.String(), err
}

func TestExecCmd_Definition(t *testing.T) {
	flags := execCmd.Flags()
	param := flags.Lookup("param")
	require.NotNil(t, param)
	assert.Equal(t, "p", param.Shorthand)
	assert.NotNil(t, flags.Lookup("compact"))
}

func TestNormalizeCmd(t *testing.T) {
	out, err := run(t, "normalize", "vitalik.eth", "service:x.com:username:cookedzera")
	require.NoError(t, err)

	var got []normalized
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.Equal(t, string(domain.KindENSName), got[0].Kind)
	assert.Equal(t, string(domain.KindTwitterUsername), got[1].Kind)
	assert.Equal(t, "service:x.com:username:cookedzera", got[1].Userkey)
}

func TestIntentsCmd(t *testing.T) {
	out, err := run(t, "intents", "--json")
	require.NoError(t, err)

	var got []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Len(t, got, 14)

	out, err = run(t, "intents")
	require.NoError(t, err)
	assert.Contains(t, out, "user_profile")
	assert.Contains(t, out, "REQUIRED")
}

func TestExecCmd_FallsBackToStaticDataset(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer down.Close()

	t.Setenv("DIRECTORY_BASE_URL", down.URL)
	t.Setenv("MOCK_DATA_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "error")

	out, err := run(t, "exec", "user_profile", "-p", "userkey=retroqueen", "--compact")
	require.NoError(t, err)

	var env domain.Envelope
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	assert.True(t, env.Success, env.Message)
	assert.False(t, env.IsRealData)
}

func TestExecCmd_FailedIntentExitsNonZero(t *testing.T) {
	t.Setenv("MOCK_DATA_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "error")

	out, err := run(t, "exec", "foo")
	require.ErrorIs(t, err, errIntentFailed)
	assert.Contains(t, out, "not supported")
}

func TestExecCmd_RejectsMalformedParam(t *testing.T) {
	_, err := run(t, "exec", "user_profile", "-p", "userkey")
	assert.Error(t, err)
}
