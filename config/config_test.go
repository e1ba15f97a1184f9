package config

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/linesmerrill/legal-case-api/apperrors"
	"github.com/linesmerrill/legal-case-api/models"
)

func TestNew(t *testing.T) {
	os.Setenv("DB_URI", "mongodb://127.0.0.1:27017")
	os.Setenv("DB_NAME", "test")
	conf := New()

	assert.NotEmpty(t, conf)
	assert.Equal(t, "test", conf.DatabaseName)
}

func TestNewDefaults(t *testing.T) {
	os.Unsetenv("AUTO_VERIFY_DELAY")
	os.Unsetenv("DB_DRIVER")
	os.Setenv("AUTO_ASSIGN_DELAY", "not-a-duration")
	defer os.Unsetenv("AUTO_ASSIGN_DELAY")
	conf := New()

	assert.Equal(t, 3*time.Second, conf.AutoVerifyDelay)
	assert.Equal(t, 2*time.Second, conf.AutoAssignDelay)
	assert.Equal(t, DriverMongo, conf.DBDriver)
	assert.True(t, conf.ReconcileOnRead)
}

func TestNewReadsOverrides(t *testing.T) {
	os.Setenv("AUTO_VERIFY_DELAY", "50ms")
	os.Setenv("RECONCILE_ON_READ", "false")
	os.Setenv("DB_DRIVER", DriverMemory)
	defer func() {
		os.Unsetenv("AUTO_VERIFY_DELAY")
		os.Unsetenv("RECONCILE_ON_READ")
		os.Unsetenv("DB_DRIVER")
	}()
	conf := New()

	assert.Equal(t, 50*time.Millisecond, conf.AutoVerifyDelay)
	assert.False(t, conf.ReconcileOnRead)
	assert.Equal(t, DriverMemory, conf.DBDriver)
}

func TestErrorStatus(t *testing.T) {
	rr := httptest.NewRecorder()
	ErrorStatus("error it borked", http.StatusBadRequest, rr, errors.New("bad request"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	var resp models.ErrorMessageResponse
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "error it borked", resp.Response.Message)
	assert.Equal(t, "bad request", resp.Response.Error)
}

func TestErrorStatusCarriesValidationFields(t *testing.T) {
	rr := httptest.NewRecorder()
	ErrorStatus("invalid request", http.StatusBadRequest, rr, apperrors.Validationf("title", "is required"))

	var resp models.ErrorMessageResponse
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, []string{"is required"}, resp.Response.Fields["title"])
}

func TestSetLoggerSetsDevelopmentLogger(t *testing.T) {
	l, err := setLogger("development")
	assert.NoError(t, err)
	assert.True(t, l.Core().Enabled(1))
}

func TestSetLoggerSetsProductionLogger(t *testing.T) {
	l, err := setLogger("production")
	assert.NoError(t, err)
	assert.True(t, l.Core().Enabled(2))
}

func TestSetLoggerSetsLocalLogger(t *testing.T) {
	l, err := setLogger("local")
	assert.NoError(t, err)
	assert.True(t, l.Core().Enabled(0))
}
