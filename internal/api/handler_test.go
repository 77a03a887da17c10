package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"bandsync/config"
	"bandsync/internal/model"
	"bandsync/internal/store"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Event{}, &model.Availability{}))

	cfg := &config.Config{}
	cfg.ApplyDefaults()
	cfg.Server.AdminName = "BANDMASTER"
	cfg.Server.AllowedOrigins = []string{"http://localhost:5173"}

	return NewRouter(store.NewGormStore(db), &cfg.Server)
}

func doJSON(router *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func futureRange() (time.Time, time.Time) {
	start := time.Now().Add(48 * time.Hour).Truncate(time.Second)
	return start, start.Add(2 * time.Hour)
}

func rangeQuery(path string, start, end time.Time) string {
	return fmt.Sprintf("%s?start=%s&end=%s",
		path, start.Format(time.RFC3339), end.Format(time.RFC3339))
}

func TestPostEvent_CreateAndList(t *testing.T) {
	router := setupRouter(t)
	start, end := futureRange()

	w := doJSON(router, "POST", "/events", gin.H{
		"title": "LIVE", "kind": "live",
		"start": start, "end": end, "createdBy": "COKAI",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)

	w = doJSON(router, "GET", rangeQuery("/events", start.Add(-time.Hour), end.Add(time.Hour)), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var events []model.Event
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
	require.Len(t, events, 1)
	assert.Equal(t, "LIVE", events[0].Title)
	assert.Equal(t, model.KindLive, events[0].Kind)
}

func TestPostEvent_ValidationFailures(t *testing.T) {
	router := setupRouter(t)
	start, end := futureRange()

	testCases := []struct {
		name   string
		body   gin.H
		reason string
	}{
		{
			name:   "Empty title",
			body:   gin.H{"title": "  ", "kind": "live", "start": start, "end": end, "createdBy": "COKAI"},
			reason: "missing-field",
		},
		{
			name:   "Bad kind",
			body:   gin.H{"title": "LIVE", "kind": "concert", "start": start, "end": end, "createdBy": "COKAI"},
			reason: "bad-enum",
		},
		{
			name:   "Inverted range",
			body:   gin.H{"title": "LIVE", "kind": "live", "start": end, "end": start, "createdBy": "COKAI"},
			reason: "bad-range",
		},
		{
			name:   "Outside sync window",
			body:   gin.H{"title": "LIVE", "kind": "live", "start": start.AddDate(0, 6, 0), "end": end.AddDate(0, 6, 0), "createdBy": "COKAI"},
			reason: "out-of-window",
		},
		{
			name:   "Unsafe markup in title",
			body:   gin.H{"title": "<script>alert(1)</script>", "kind": "live", "start": start, "end": end, "createdBy": "COKAI"},
			reason: "bad-content",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(router, "POST", "/events", tc.body, nil)
			require.Equal(t, http.StatusBadRequest, w.Code)

			var resp struct {
				Reason string `json:"reason"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tc.reason, resp.Reason)
		})
	}
}

func TestPostEvent_MultibyteTitleAndCreator(t *testing.T) {
	router := setupRouter(t)
	start, end := futureRange()

	// 40 characters, 120 bytes: the bound is counted in characters.
	title := strings.Repeat("演", 40)
	w := doJSON(router, "POST", "/events", gin.H{
		"title": title, "kind": "live",
		"start": start, "end": end, "createdBy": "コカイ",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(router, "GET", rangeQuery("/events", start.Add(-time.Hour), end.Add(time.Hour)), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var events []model.Event
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
	require.Len(t, events, 1)
	assert.Equal(t, title, events[0].Title)
	assert.Equal(t, "コカイ", events[0].CreatedBy)
}

func TestPostEvent_RequiresJSONContentType(t *testing.T) {
	router := setupRouter(t)

	req, _ := http.NewRequest("POST", "/events", bytes.NewBufferString("title=LIVE"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestDeleteEvent_Authorization(t *testing.T) {
	router := setupRouter(t)
	start, end := futureRange()

	w := doJSON(router, "POST", "/events", gin.H{
		"title": "LIVE", "kind": "live",
		"start": start, "end": end, "createdBy": "COKAI",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	// No actor header.
	w = doJSON(router, "DELETE", "/events/"+created.ID, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Wrong actor.
	w = doJSON(router, "DELETE", "/events/"+created.ID, nil, map[string]string{"X-Actor": "RIO"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Unknown id.
	w = doJSON(router, "DELETE", "/events/nope", nil, map[string]string{"X-Actor": "COKAI"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Admin may delete.
	w = doJSON(router, "DELETE", "/events/"+created.ID, nil, map[string]string{"X-Actor": "BANDMASTER"})
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestPostAvailability_UpsertSemantics(t *testing.T) {
	router := setupRouter(t)
	start, _ := futureRange()
	end := start.Add(3 * time.Hour)

	w := doJSON(router, "POST", "/availability", gin.H{
		"memberName": "COKAI", "start": start, "end": end, "status": "available",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	// An overlapping write replaces the first record.
	w = doJSON(router, "POST", "/availability", gin.H{
		"memberName": "COKAI", "start": start.Add(time.Hour), "end": end.Add(-time.Hour), "status": "unavailable",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(router, "GET", rangeQuery("/availability", start.Add(-time.Hour), end.Add(time.Hour)), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var records []model.Availability
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, model.StatusUnavailable, records[0].Status)
}

func TestGetEvents_WritesInvalidateResponseCache(t *testing.T) {
	router := setupRouter(t)
	start, end := futureRange()
	query := rangeQuery("/events", start.Add(-time.Hour), end.Add(time.Hour))

	// Prime the response cache with an empty list.
	w := doJSON(router, "GET", query, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = doJSON(router, "POST", "/events", gin.H{
		"title": "LIVE", "kind": "live",
		"start": start, "end": end, "createdBy": "COKAI",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	// The mutation flushed the cache, so the new event is visible at once.
	w = doJSON(router, "GET", query, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var events []model.Event
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
	assert.Len(t, events, 1)
}

func TestGetEvents_BadRangeParams(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(router, "GET", "/events", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, "GET", "/events?start=yesterday&end=tomorrow", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
