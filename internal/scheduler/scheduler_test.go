package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartRejectsInvalidCronSpec(t *testing.T) {
	s := New(Config{
		ProfileSyncSpec:  "not a cron spec",
		ReminderSpec:     "0 9 * * 1",
		PaymentSweepSpec: "0 8 * * *",
		Term:             "2025-1",
	}, nil, nil, nil, nil)

	err := s.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "profile sync")
}

func TestStartAndStop(t *testing.T) {
	s := New(Config{
		ProfileSyncSpec:  "0 2 * * *",
		ReminderSpec:     "0 9 * * 1",
		PaymentSweepSpec: "0 8 * * *",
		Term:             "2025-1",
	}, nil, nil, nil, nil)

	require.NoError(t, s.Start())
	s.Stop()
}
