package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]interface{}{
		"trace": LevelTrace,
		"DEBUG": LevelDebug,
		"info":  LevelInfo,
		"Warn":  LevelWarn,
		"error": LevelError,
		"crit":  LevelCrit,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestModuleFilter(t *testing.T) {
	var buf bytes.Buffer
	prev := Root()
	defer SetDefault(prev)
	require.NoError(t, InitJSONLogger("trace", &buf))

	DisableModule(StfMonitoring)
	Debug(StfMonitoring, "hidden")
	assert.Empty(t, buf.String())

	EnableModules("stf_mod, proof_mod")
	defer DisableModule(StfMonitoring)
	defer DisableModule(ProofMonitoring)
	Debug(StfMonitoring, "shown", "k", 1)
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), StfMonitoring)

	buf.Reset()
	Warn(LedgerMonitoring, "always")
	assert.Contains(t, buf.String(), "always")
}

func TestOperationRecordFieldOrder(t *testing.T) {
	rec := OperationRecord{
		Time:    time.Unix(0, 0).UTC(),
		Shard:   "0x00",
		Kind:    "call",
		Variant: "balance_transfer",
		Outcome: "ok",
	}
	b, err := json.Marshal(rec)
	require.NoError(t, err)
	s := string(b)
	assert.True(t, strings.Index(s, `"shard"`) < strings.Index(s, `"variant"`))
	assert.NotContains(t, s, "call_hash")
	assert.NotContains(t, s, "elapsed")

	var back map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, "ok", back["outcome"])
}
