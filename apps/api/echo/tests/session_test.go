package tests

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	echoapi "github.com/ignasimgol/tfm-uoc/apps/api/echo"
	"github.com/ignasimgol/tfm-uoc/core/progress"
	"github.com/ignasimgol/tfm-uoc/core/training"
	"github.com/ignasimgol/tfm-uoc/tests"
)

func Test_sessionApi(t *testing.T) {
	e := setupSchool(t)
	grp := testutil.CreateGroup(t, e.grpRepo, "Blue", e.teacher)
	testutil.AddMember(t, e.grpRepo, grp, e.ana)

	logSession := func(activity string, duration, intensity int) []byte {
		return marchallObj(t, training.LogSession{ActivityType: activity, Duration: duration, Intensity: intensity})
	}

	tests := []httpTest{
		{
			name: "student required", path: "/v1/sessions/2024-05-01", token: e.teacherToken, body: logSession("running", 30, 3),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "invalid date", path: "/v1/sessions/2024-13-01", token: e.anaToken, body: logSession("running", 30, 3),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"date": "date must be formatted as YYYY-MM-DD"}),
		},
		{
			name: "unknown activity", path: "/v1/sessions/2024-05-01", token: e.anaToken, body: logSession("quidditch", 30, 3),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"activity_type": "unknown activity type"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPut
		t.Run(tt.name, func(t *testing.T) {
			e.serve(t, tt)
		})
	}

	t.Run("log", func(t *testing.T) {
		e.mailer.Reset()
		rec := e.serve(t, httpTest{
			method: http.MethodPut, path: "/v1/sessions/2024-05-01", token: e.anaToken, wantCode: http.StatusOK,
			body: logSession("running", 120, 9),
		})
		var got progress.Recorded
		unmarshall(t, rec, &got)

		assert.Equal(t, "2024-05-01", got.Session.Date)
		assert.Equal(t, null.StringFrom(grp.ID), got.Session.GroupID)
		assert.Equal(t, training.MaxIntensity, got.Session.Intensity)
		assert.Equal(t, []int{100}, got.Unlocked)
		require.NotNil(t, got.Rewards.NextThreshold)
		assert.Equal(t, 250, *got.Rewards.NextThreshold)
		require.Len(t, e.mailer.Sent(), 1)
		assert.Equal(t, e.ana.Email, e.mailer.Sent()[0].To[0].Address)
	})

	t.Run("replace the day's session", func(t *testing.T) {
		e.mailer.Reset()
		rec := e.serve(t, httpTest{
			method: http.MethodPut, path: "/v1/sessions/2024-05-01", token: e.anaToken, wantCode: http.StatusOK,
			body: logSession("football", 90, 0),
		})
		var got progress.Recorded
		unmarshall(t, rec, &got)

		assert.Equal(t, "football", got.Session.ActivityType)
		assert.Equal(t, training.DefaultIntensity, got.Session.Intensity)
		assert.Equal(t, 90, got.Rewards.TotalMinutes)
		assert.Empty(t, got.Unlocked)
		assert.Empty(t, e.mailer.Sent())
	})

	t.Run("query", func(t *testing.T) {
		testutil.CreateSession(t, e.trnRepo, e.ana, grp.ID, "2024-05-20", "yoga", 45, 4)
		testutil.CreateSession(t, e.trnRepo, e.ana, grp.ID, "2024-06-02", "gym", 30, 2)
		testutil.CreateSession(t, e.trnRepo, e.leo, "", "2024-05-10", "gym", 30, 2)

		dates := func(t *testing.T, path string) []string {
			rec := e.serve(t, httpTest{method: http.MethodGet, path: path, token: e.anaToken, wantCode: http.StatusOK})
			var sessions []training.Session
			unmarshall(t, rec, &sessions)
			res := make([]string, 0, len(sessions))
			for _, sess := range sessions {
				res = append(res, sess.Date)
			}
			return res
		}
		assert.Equal(t, []string{"2024-05-01", "2024-05-20"}, dates(t, "/v1/sessions?month=2024-05"))
		assert.Equal(t, []string{}, dates(t, "/v1/sessions?month=2023-05"))
		assert.Equal(t, []string{"2024-06-02", "2024-05-20", "2024-05-01"}, dates(t, "/v1/sessions/all"))

		e.serve(t, httpTest{
			method: http.MethodGet, path: "/v1/sessions?month=May", token: e.anaToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"month": "month must be formatted as YYYY-MM"}),
		})

		rec := e.serve(t, httpTest{method: http.MethodGet, path: "/v1/sessions/2024-05-20", token: e.anaToken, wantCode: http.StatusOK})
		var sess training.Session
		unmarshall(t, rec, &sess)
		assert.Equal(t, "yoga", sess.ActivityType)
	})

	t.Run("rewards", func(t *testing.T) {
		rec := e.serve(t, httpTest{method: http.MethodGet, path: "/v1/rewards", token: e.anaToken, wantCode: http.StatusOK})
		var got progress.Rewards
		unmarshall(t, rec, &got)

		assert.Equal(t, 165, got.Totals.TotalMinutes)
		assert.Equal(t, []int{100}, got.State.AchievedThresholds)
		assert.Equal(t, []string{"gym", "yoga", "football"}, got.PlayedTypes)
		require.Len(t, got.Badges, 2)
		assert.Equal(t, "outdoor", got.Badges[0].Category)
		assert.Empty(t, got.Badges[0].CompletedTypes)
		assert.Equal(t, "team", got.Badges[1].Category)
		assert.Equal(t, []string{"football"}, got.Badges[1].CompletedTypes)
		assert.False(t, got.Badges[1].Achieved)

		e.serve(t, httpTest{method: http.MethodGet, path: "/v1/rewards", token: e.teacherToken, wantCode: http.StatusForbidden})
	})

	t.Run("delete", func(t *testing.T) {
		e.serve(t, httpTest{method: http.MethodDelete, path: "/v1/sessions/2024-05-20", token: e.anaToken, wantCode: http.StatusNoContent})
		e.serve(t, httpTest{
			method: http.MethodDelete, path: "/v1/sessions/2024-05-20", token: e.anaToken, wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: training.ErrNotFound.Error()}),
		})
		e.serve(t, httpTest{
			method: http.MethodGet, path: "/v1/sessions/2024-05-20", token: e.anaToken, wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: training.ErrNotFound.Error()}),
		})
	})
}

func Test_activityApi(t *testing.T) {
	e := setup(t)
	e.serve(t, httpTest{
		method: http.MethodGet, path: "/v1/activities", wantCode: http.StatusOK,
		wantData: marchallObj(t, training.ActivityTypes),
	})
}

func Test_countryMiddleware(t *testing.T) {
	conf := testutil.NewConfig()
	conf.Server.AllowedCountries = []string{"ES", "AD"}
	app := echoapi.NewServer(echoapi.ServerDeps{Conf: conf, Logger: testutil.NewLogger(conf)})

	tests := []struct {
		name     string
		country  string
		wantCode int
	}{
		{name: "no header", wantCode: http.StatusForbidden},
		{name: "not allowed", country: "FR", wantCode: http.StatusForbidden},
		{name: "allowed", country: "es", wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.country != "" {
				req.Header.Set(conf.Server.CountryHeader, tt.country)
			}
			rec := httptest.NewRecorder()
			app.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusForbidden {
				assert.JSONEq(t, `{"error":"Access Denied"}`, rec.Body.String())
			}
		})
	}
}
