package training_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/ignasimgol/tfm-uoc/core"
	"github.com/ignasimgol/tfm-uoc/core/training"
	"github.com/ignasimgol/tfm-uoc/core/user"
	"github.com/ignasimgol/tfm-uoc/storage/database/sqlxrepo"
	"github.com/ignasimgol/tfm-uoc/tests"
)

func setup(t *testing.T) (training.ServiceInterface, user.Repository) {
	db := testutil.PrepareDB(t)
	return training.NewService(sqlxrepo.NewSessionRepository(db)), sqlxrepo.NewUserRepository(db)
}

func dates(sessions []training.Session) []string {
	res := make([]string, 0, len(sessions))
	for _, sess := range sessions {
		res = append(res, sess.Date)
	}
	return res
}

func TestService_Save(t *testing.T) {
	ctx := context.Background()
	svc, usrRepo := setup(t)
	student := testutil.CreateUser(t, usrRepo, "Sara", "sara@example.com", "", user.RoleStudent, "", false)

	sess, err := svc.Save(ctx, student.ID, null.String{}, training.LogSession{
		Date:         "2024-03-10",
		ActivityType: "running",
		Duration:     -5,
		Intensity:    9,
		Notes:        "  ",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, 0, sess.Duration)
	assert.Equal(t, training.MaxIntensity, sess.Intensity)
	assert.False(t, sess.Notes.Valid)
	assert.False(t, sess.GroupID.Valid)

	// same day: the session is replaced
	again, err := svc.Save(ctx, student.ID, null.String{}, training.LogSession{
		Date:         "2024-03-10",
		ActivityType: "yoga",
		Duration:     45,
		Notes:        "calm",
	})
	require.NoError(t, err)
	assert.Equal(t, sess.ID, again.ID)
	assert.Equal(t, "yoga", again.ActivityType)
	assert.Equal(t, 45, again.Duration)
	assert.Equal(t, training.DefaultIntensity, again.Intensity)
	assert.Equal(t, "calm", again.Notes.String)

	all, err := svc.QueryByStudent(ctx, student.ID)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestService_QueryAndDelete(t *testing.T) {
	ctx := context.Background()
	svc, usrRepo := setup(t)
	ann := testutil.CreateUser(t, usrRepo, "Ann", "ann@example.com", "", user.RoleStudent, "", false)
	ben := testutil.CreateUser(t, usrRepo, "Ben", "ben@example.com", "", user.RoleStudent, "", false)

	for _, d := range []string{"2024-01-31", "2024-02-01", "2024-02-15", "2024-02-29", "2024-03-01"} {
		_, err := svc.Save(ctx, ann.ID, null.String{}, training.LogSession{Date: d, ActivityType: "gym", Duration: 30})
		require.NoError(t, err)
	}
	_, err := svc.Save(ctx, ben.ID, null.String{}, training.LogSession{Date: "2024-02-10", ActivityType: "dance", Duration: 20})
	require.NoError(t, err)

	month, err := svc.QueryMonth(ctx, ann.ID, 2024, time.February)
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"2024-02-01", "2024-02-15", "2024-02-29"}, dates(month)); diff != "" {
		t.Errorf("QueryMonth() mismatch (-want +got):\n%s", diff)
	}

	byStudent, err := svc.QueryByStudent(ctx, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", byStudent[0].Date)

	dances, err := svc.Query(ctx, &training.QueryFilter{ActivityTypes: []string{"dance"}}, []core.DBOrdering{{Field: "bogus"}})
	require.NoError(t, err)
	require.Len(t, dances, 1)
	assert.Equal(t, ben.ID, dances[0].StudentID)

	require.NoError(t, svc.Delete(ctx, ann.ID, "2024-02-15"))
	_, err = svc.Get(ctx, ann.ID, "2024-02-15")
	assert.Equal(t, training.ErrNotFound, errors.Cause(err))
	assert.Equal(t, training.ErrNotFound, errors.Cause(svc.Delete(ctx, ann.ID, "2024-02-15")))
}

func TestLogSession_Validate(t *testing.T) {
	validate, _ := testutil.NewValidator()

	tests := []struct {
		name    string
		ls      training.LogSession
		wantErr bool
	}{
		{"valid", training.LogSession{Date: "2024-05-01", ActivityType: "climbing", Duration: 60, Intensity: 4}, false},
		{"bad date", training.LogSession{Date: "01/05/2024", ActivityType: "climbing"}, true},
		{"impossible date", training.LogSession{Date: "2024-02-30", ActivityType: "climbing"}, true},
		{"unknown activity", training.LogSession{Date: "2024-05-01", ActivityType: "chess"}, true},
		{"missing activity", training.LogSession{Date: "2024-05-01"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ls.Validate(validate)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
