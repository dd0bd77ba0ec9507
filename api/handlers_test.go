/*
handlers_test.go - HTTP round-trip tests

Tests for:
- The weekly ledger lifecycle over the wire
- Domain error to status code mapping
- Homework completion rules at the boundary
- Config and readiness endpoints
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthside/learning-hub/ledger"
	"github.com/hearthside/learning-hub/store/sqlite"
	"github.com/hearthside/learning-hub/syncfeed"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type fixture struct {
	server *httptest.Server
	store  *sqlite.Store
	alloc  *ledger.Allocator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	settings := ledger.DefaultSettings()
	engine := ledger.NewEngine(store, settings)
	alloc := ledger.NewAllocator(store)
	tracker := ledger.NewTracker(store, settings)
	recorder := ledger.NewRecorder(store, settings)
	results := ledger.NewResults(store, settings)
	feed := syncfeed.NewService(store, store, syncfeed.NewRegistry(), zerolog.Nop())

	h := NewHandler(engine, alloc, tracker, recorder, results, store, feed, zerolog.Nop())
	server := httptest.NewServer(NewRouter(h))
	t.Cleanup(server.Close)

	return &fixture{server: server, store: store, alloc: alloc}
}

// do sends a JSON request and decodes the response body into out (when
// out is non-nil). It returns the status code.
func (f *fixture) do(t *testing.T, method, path string, body, out interface{}) int {
	t.Helper()
	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, f.server.URL+path, buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// seedTopic creates a school, subject, and topic over the API and returns
// the subject and topic ids.
func (f *fixture) seedTopic(t *testing.T) (subjectID, topicID int64) {
	t.Helper()

	var school SchoolDTO
	status := f.do(t, http.MethodPost, "/api/schools",
		CreateSchoolRequest{Code: "lincoln", Name: "Lincoln", Active: true}, &school)
	require.Equal(t, http.StatusCreated, status)

	var subject SubjectDTO
	status = f.do(t, http.MethodPost, "/api/subjects",
		CreateSubjectRequest{SchoolID: school.ID, Name: "math"}, &subject)
	require.Equal(t, http.StatusCreated, status)

	var topic TopicDTO
	status = f.do(t, http.MethodPost, "/api/topics",
		CreateTopicRequest{SubjectID: subject.ID, Description: "fractions"}, &topic)
	require.Equal(t, http.StatusCreated, status)

	return subject.ID, topic.ID
}

// =============================================================================
// WEEKLY LEDGER
// =============================================================================

func TestWeekLifecycle(t *testing.T) {
	// GIVEN: A finalized week with one excellent grade inside it
	// WHEN: Calculating the next week over the API
	// THEN: The grade's minutes land in the new week and the old week
	//       refuses further edits

	f := newFixture(t)
	subjectID, _ := f.seedTopic(t)

	var week WeekDTO
	status := f.do(t, http.MethodPost, "/api/weeks",
		CreateWeekRequest{WeekKey: "2025-09-06"}, &week)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "2025-09-06", week.WeekKey)

	date := "2025-09-08"
	var grade GradeDTO
	status = f.do(t, http.MethodPost, "/api/grades",
		CreateGradeRequest{SubjectID: subjectID, Value: 1, Date: &date}, &grade)
	require.Equal(t, http.StatusCreated, status)

	status = f.do(t, http.MethodPost, "/api/weeks/2025-09-06/finalize",
		FinalizeWeekRequest{ActualPlayedMinutes: 0}, &week)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, week.IsFinalized)

	var calc CalcResultDTO
	status = f.do(t, http.MethodPost, "/api/weeks/calculate",
		CalculateRequest{NewWeekKey: "2025-09-13"}, &calc)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, string(ledger.StatusOK), calc.Status)
	assert.Equal(t, 15, calc.GradeMinutes, "an excellent grade is worth 15 minutes")
	assert.Equal(t, 1, calc.GradesProcessed)
	require.NotNil(t, calc.Week)
	assert.Equal(t, "2025-09-13", calc.Week.WeekKey)

	// The finalized week rejects edits with a conflict carrying the
	// unchanged record
	penalty := 10
	var conflict WeekConflictResponse
	status = f.do(t, http.MethodPatch, "/api/weeks/2025-09-06",
		UpdateWeekRequest{PenaltyMinutes: &penalty}, &conflict)
	assert.Equal(t, http.StatusConflict, status)
	assert.NotEmpty(t, conflict.Error)
	require.NotNil(t, conflict.Week)
	assert.Equal(t, "2025-09-06", conflict.Week.WeekKey)
	assert.True(t, conflict.Week.IsFinalized)
	assert.Equal(t, 0, conflict.Week.PenaltyMinutes, "the edit must not land")
}

func TestCalculate_PrevNotFinalizedIsNotAnError(t *testing.T) {
	f := newFixture(t)

	var calc CalcResultDTO
	status := f.do(t, http.MethodPost, "/api/weeks/calculate",
		CalculateRequest{NewWeekKey: "2025-09-13"}, &calc)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, string(ledger.StatusPrevNotFinalized), calc.Status)
}

func TestGetWeek_Missing(t *testing.T) {
	f := newFixture(t)

	var errResp ErrorResponse
	status := f.do(t, http.MethodGet, "/api/weeks/2030-01-03", nil, &errResp)
	assert.Equal(t, http.StatusNotFound, status)
}

// =============================================================================
// BONUS TASKS AND FUND
// =============================================================================

func TestCreateTask_ShortfallMapsToConflict(t *testing.T) {
	// GIVEN: A fund with zero available slots and nothing to preempt
	// WHEN: Creating a task
	// THEN: 409 with the shortfall numbers in the details

	f := newFixture(t)
	_, topicID := f.seedTopic(t)
	_, err := f.alloc.EnsureFund(context.Background(), "bonus tasks", 0)
	require.NoError(t, err)

	var errResp ErrorResponse
	status := f.do(t, http.MethodPost, "/api/bonus-tasks",
		CreateTaskRequest{SubjectTopicID: topicID, Description: "drills"}, &errResp)
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, errResp.Details, "insufficient fund")
}

func TestTaskLifecycle(t *testing.T) {
	f := newFixture(t)
	_, topicID := f.seedTopic(t)
	_, err := f.alloc.EnsureFund(context.Background(), "bonus tasks", 5)
	require.NoError(t, err)

	var created CreateTaskResponse
	status := f.do(t, http.MethodPost, "/api/bonus-tasks",
		CreateTaskRequest{SubjectTopicID: topicID, Description: "drills"}, &created)
	require.Equal(t, http.StatusCreated, status)
	require.NotNil(t, created.Task)
	assert.Nil(t, created.Preempted)
	assert.Equal(t, "pending", created.Task.Status)
	require.NotNil(t, created.Fund, "creation reports the fund state")
	assert.Equal(t, 5, created.Fund.AvailableTasks, "creation never deducts")

	// Apply a passing result
	var result TaskResultDTO
	path := fmt.Sprintf("/api/bonus-tasks/%d/result", created.Task.ID)
	status = f.do(t, http.MethodPost, path, TaskResultRequest{GradeValue: 1}, &result)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "completed", result.Task.Status)
	assert.Equal(t, 4, result.Fund.AvailableTasks)
	require.NotNil(t, result.Grade)
	assert.Equal(t, 1, result.Grade.Value)

	// A failing result on another task is rejected up front
	var second CreateTaskResponse
	status = f.do(t, http.MethodPost, "/api/bonus-tasks",
		CreateTaskRequest{SubjectTopicID: topicID, Description: "more drills"}, &second)
	require.Equal(t, http.StatusCreated, status)

	var errResp ErrorResponse
	path = fmt.Sprintf("/api/bonus-tasks/%d/result", second.Task.ID)
	status = f.do(t, http.MethodPost, path, TaskResultRequest{GradeValue: 5}, &errResp)
	assert.Equal(t, http.StatusBadRequest, status)

	// Cancelling a completed task is a conflict
	path = fmt.Sprintf("/api/bonus-tasks/%d/cancel", created.Task.ID)
	status = f.do(t, http.MethodPost, path, nil, &errResp)
	assert.Equal(t, http.StatusConflict, status)
}

func TestGetFund_MissingMapsToNotFound(t *testing.T) {
	f := newFixture(t)

	var errResp ErrorResponse
	status := f.do(t, http.MethodGet, "/api/fund", nil, &errResp)
	assert.Equal(t, http.StatusNotFound, status)
}

// =============================================================================
// HOMEWORKS
// =============================================================================

func TestCompleteHomework_RecommendedGradeRules(t *testing.T) {
	f := newFixture(t)
	subjectID, _ := f.seedTopic(t)

	var hw HomeworkDTO
	status := f.do(t, http.MethodPost, "/api/homeworks",
		CreateHomeworkRequest{SubjectID: subjectID, Description: "essay"}, &hw)
	require.Equal(t, http.StatusCreated, status)

	// A failing recommended grade sends the work back
	path := fmt.Sprintf("/api/homeworks/%d/complete", hw.ID)
	bad := 5
	var errResp ErrorResponse
	status = f.do(t, http.MethodPost, path,
		CompleteHomeworkRequest{RecommendedGrade: &bad}, &errResp)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "student should redo the work", errResp.Error)

	// A passing one completes and settles the bonus
	good := 2
	var done CompleteHomeworkResponse
	status = f.do(t, http.MethodPost, path,
		CompleteHomeworkRequest{RecommendedGrade: &good}, &done)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "done", done.Homework.Status)
	require.NotNil(t, done.Homework.RecommendedGrade)
	assert.Equal(t, 2, *done.Homework.RecommendedGrade)
	require.NotNil(t, done.Bonus)
	assert.Equal(t, 5, done.Bonus.Minutes, "no deadline counts as on time")
}

func TestCreateBonus_AdhocWithoutReason(t *testing.T) {
	f := newFixture(t)

	var errResp ErrorResponse
	status := f.do(t, http.MethodPost, "/api/bonuses",
		CreateBonusRequest{Minutes: 10}, &errResp)
	assert.Equal(t, http.StatusBadRequest, status)
}

// =============================================================================
// CONFIG AND READINESS
// =============================================================================

func TestConfigRoundTrip(t *testing.T) {
	f := newFixture(t)

	value := "20"
	var entry ConfigEntryDTO
	status := f.do(t, http.MethodPut, "/api/config/"+ledger.KeyWeeklyTopup,
		SetConfigRequest{Value: &value, Description: "weekly slots", IsRequired: true}, &entry)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, entry.Value)
	assert.Equal(t, "20", *entry.Value)

	status = f.do(t, http.MethodGet, "/api/config/"+ledger.KeyWeeklyTopup, nil, &entry)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, entry.IsRequired)

	var minutes map[string]int
	status = f.do(t, http.MethodGet, "/api/config/grade-minutes", nil, &minutes)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 15, minutes["1"])
	assert.Equal(t, -25, minutes["5"])
}

func TestReadiness_EmptyInstallation(t *testing.T) {
	f := newFixture(t)

	var readiness struct {
		Ready  bool `json:"ready"`
		Issues []struct {
			Check string `json:"check"`
		} `json:"issues"`
	}
	status := f.do(t, http.MethodGet, "/api/readiness", nil, &readiness)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, readiness.Ready)
	assert.NotEmpty(t, readiness.Issues)
}
