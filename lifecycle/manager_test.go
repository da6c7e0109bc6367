package lifecycle

import (
	"errors"
	"net/http"
	"testing"

	"github.com/rpupo63/rooms-blog-backend/errs"
	"github.com/stretchr/testify/assert"
)

func TestStoreFailureClassification(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		dependency bool
		status     int
	}{
		{"missing row", errs.NewNotFound("blog"), false, http.StatusNotFound},
		{"duplicate row", errs.NewDatabaseError("create", "blog", errors.New("duplicate key value (SQLSTATE 23505)")), false, http.StatusConflict},
		{"already published", errs.NewAlreadyPublishedError(), false, http.StatusConflict},
		{"database down", errs.NewDatabaseError("find", "blog", errors.New("connection refused")), true, http.StatusInternalServerError},
		{"query failed", errs.NewDatabaseError("find", "blog", errors.New("syntax error")), true, http.StatusInternalServerError},
		{"plain error", errors.New("boom"), true, http.StatusInternalServerError},
		{"already classified", errs.NewDependencyFailure("content store", "patch", errors.New("503")), true, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := dbFailure("find blog", tt.err)

			assert.Equal(t, tt.dependency, errs.IsDependencyFailure(err))
			assert.Equal(t, tt.status, errs.StatusCode(err))
		})
	}

	assert.NoError(t, dbFailure("find blog", nil))
}
