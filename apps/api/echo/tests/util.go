package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/ignasimgol/tfm-uoc/apps/api/echo"
	"github.com/ignasimgol/tfm-uoc/core"
	"github.com/ignasimgol/tfm-uoc/core/group"
	"github.com/ignasimgol/tfm-uoc/core/progress"
	"github.com/ignasimgol/tfm-uoc/core/school"
	"github.com/ignasimgol/tfm-uoc/core/training"
	"github.com/ignasimgol/tfm-uoc/core/user"
	emailsvc "github.com/ignasimgol/tfm-uoc/services/email"
	"github.com/ignasimgol/tfm-uoc/storage/database/sqlxrepo"
	"github.com/ignasimgol/tfm-uoc/tests"
)

const pwd = "Mw9$tq!Lx2"

var (
	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
	errNotFound     = httpErr{Error: "not found"}
)

type testEnv struct {
	ctx     context.Context
	conf    *core.Config
	app     *echoapi.Server
	mailer  *emailsvc.ConsoleServiceMock
	usrRepo user.Repository
	schRepo school.Repository
	grpRepo group.Repository
	trnRepo training.Repository
}

func setup(t *testing.T) testEnv {
	conf := testutil.NewConfig()
	logger := testutil.NewLogger(conf)
	testutil.LoadCommonPasswords(logger)
	validate, translator := testutil.NewValidator()
	db := testutil.PrepareDB(t)

	e := testEnv{
		ctx:     context.Background(),
		conf:    conf,
		mailer:  testutil.NewMailer(conf, logger),
		usrRepo: sqlxrepo.NewUserRepository(db),
		schRepo: sqlxrepo.NewSchoolRepository(db),
		grpRepo: sqlxrepo.NewGroupRepository(db),
		trnRepo: sqlxrepo.NewSessionRepository(db),
	}

	usrSvc := user.NewService(e.usrRepo, e.mailer, conf)
	grpSvc := group.NewService(db, e.grpRepo)
	trnSvc := training.NewService(e.trnRepo)
	e.app = echoapi.NewServer(echoapi.ServerDeps{
		Conf:        conf,
		Logger:      logger,
		UserSvc:     usrSvc,
		SchoolSvc:   school.NewService(db, e.schRepo, usrSvc),
		GroupSvc:    grpSvc,
		TrainingSvc: trnSvc,
		ProgressSvc: progress.NewService(usrSvc, grpSvc, trnSvc, e.mailer, logger, conf),
		Validate:    validate,
		Translator:  translator,
	})
	return e
}

// serve runs tt against the server and checks the response code, and the body when wantData is set.
func (e testEnv) serve(t *testing.T, tt httpTest) *httptest.ResponseRecorder {
	t.Helper()
	req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
	e.app.ServeHTTP(rec, req)
	if tt.wantData != nil {
		checkCodeAndData(t, tt, rec)
	} else {
		assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
	}
	return rec
}

func (e testEnv) getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := e.app.GenerateToken(usr)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func unmarshall(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest), rec.Body.String())
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
