package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thinkmate/mindrouter/internal/scenario"
)

func mockJournal(t *testing.T) (*Journal, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &Journal{db: db, dbPath: "test.db", retentionDays: 30, enabled: true}, mock
}

func TestJournalAppend(t *testing.T) {
	j, mock := mockJournal(t)

	mock.ExpectExec("INSERT INTO outcomes").
		WithArgs(sqlmock.AnyArg(), "openai", "summarization", int64(150), 1, 0.8).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := j.Append(context.Background(), Metric{
		ProviderID:   "openai",
		Scenario:     scenario.ScenarioSummarization,
		ResponseTime: 150 * time.Millisecond,
		Success:      true,
		Satisfaction: 0.8,
		Timestamp:    time.Now(),
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJournalAppendDisabled(t *testing.T) {
	j := &Journal{dbPath: "test.db", retentionDays: 30}

	err := j.Append(context.Background(), Metric{ProviderID: "openai"})
	assert.Error(t, err)
}

func TestJournalRecent(t *testing.T) {
	j, mock := mockJournal(t)

	rows := sqlmock.NewRows([]string{"timestamp", "provider_id", "scenario", "response_time_ms", "success", "satisfaction"}).
		AddRow(time.Now(), "openai", "summarization", int64(120), 1, 0.9).
		AddRow(time.Now(), "claude", "bogus_scenario", int64(300), 0, 0.2)

	mock.ExpectQuery("SELECT (.+) FROM outcomes").WillReturnRows(rows)

	out, err := j.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "openai", out[0].ProviderID)
	assert.Equal(t, scenario.ScenarioSummarization, out[0].Scenario)
	assert.Equal(t, 120*time.Millisecond, out[0].ResponseTime)
	assert.True(t, out[0].Success)

	// Unknown scenarios from old rows degrade to general.
	assert.Equal(t, scenario.ScenarioGeneral, out[1].Scenario)
	assert.False(t, out[1].Success)
}

func TestJournalCleanup(t *testing.T) {
	j, mock := mockJournal(t)

	mock.ExpectExec("DELETE FROM outcomes").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 4))

	j.Cleanup(context.Background())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewJournalValidation(t *testing.T) {
	_, err := NewJournal("", 30)
	assert.Error(t, err)

	j, err := NewJournal("out.db", 0)
	require.NoError(t, err)
	assert.Equal(t, 90, j.retentionDays)
}
