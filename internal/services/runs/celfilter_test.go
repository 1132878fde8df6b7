package runsvc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runlog/runlog/internal/ledger"
)

func mkEvent(id int64, typ ledger.EventType) ledger.Event {
	return ledger.Event{
		EventID:   id,
		Type:      typ,
		Timestamp: "2026-08-30T09:30:15.123Z",
		RunID:     "r",
		Phase:     "build",
		Status:    "ok",
	}
}

func TestCELFilterDisabled(t *testing.T) {
	f, err := newCELFilter("   ")
	require.NoError(t, err)
	assert.True(t, f.Eval(mkEvent(1, ledger.TypeCheckpoint)))
}

func TestCELFilterMatching(t *testing.T) {
	cases := []struct {
		expr  string
		event ledger.Event
		want  bool
	}{
		{`event_type == "phase_start"`, mkEvent(1, ledger.TypePhaseStart), true},
		{`event_type == "phase_start"`, mkEvent(1, ledger.TypeCheckpoint), false},
		{`event_id > 5`, mkEvent(6, ledger.TypeCheckpoint), true},
		{`phase == "build" && status == "ok"`, mkEvent(1, ledger.TypeStepStart), true},
		{`ts_ms > 0 && ts_ms < now_ms`, mkEvent(1, ledger.TypeCheckpoint), true},
		{`duration_ms == 0`, mkEvent(1, ledger.TypeCheckpoint), true},
		{`size(artifacts) == 0`, mkEvent(1, ledger.TypeCheckpoint), true},
	}
	for _, tc := range cases {
		f, err := newCELFilter(tc.expr)
		require.NoError(t, err, tc.expr)
		assert.Equal(t, tc.want, f.Eval(tc.event), tc.expr)
	}
}

func TestCELFilterMetadata(t *testing.T) {
	f, err := newCELFilter(`metadata.attempt == 2`)
	require.NoError(t, err)
	ev := mkEvent(1, ledger.TypeStepRetry)
	ev.Metadata = map[string]any{"attempt": 2}
	assert.True(t, f.Eval(ev))
	// missing key is an eval error, counted as a non-match
	assert.False(t, f.Eval(mkEvent(2, ledger.TypeStepRetry)))
}

func TestCELFilterNonBoolean(t *testing.T) {
	f, err := newCELFilter(`event_id + 1`)
	require.NoError(t, err)
	assert.False(t, f.Eval(mkEvent(1, ledger.TypeCheckpoint)), "non-boolean results never match")
}

func TestCELFilterParseError(t *testing.T) {
	_, err := newCELFilter("((")
	require.Error(t, err)
}
