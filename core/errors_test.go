package core

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	ex "sa.service/data/extensions"
)

func TestKindOfFollowsWrapping(t *testing.T) {
	cause := errors.New("dial tcp: i/o timeout")
	err := fmt.Errorf("handler: %w", newError(ExternalFetchFailure, "beta", "An error occurred", cause))

	ex.AssertAreEqual(t, "kind", ExternalFetchFailure, KindOf(err))
	ex.AssertAreEqual(t, "message", "An error occurred", UserMessage(err))
	ex.AssertAreEqual(t, "cause kept", true, errors.Is(err, cause))

	ex.AssertAreEqual(t, "plain error kind", ErrorKind(0), KindOf(cause))
	ex.AssertAreEqual(t, "plain error message", "An unexpected error occurred", UserMessage(cause))
	ex.AssertAreEqual(t, "nil message", "", UserMessage(nil))
}

func TestErrorKindStatus(t *testing.T) {
	tests := []struct {
		kind   ErrorKind
		status int
		name   string
	}{
		{MissingInput, http.StatusBadRequest, "missing_input"},
		{InvalidInput, http.StatusBadRequest, "invalid_input"},
		{NoDataAvailable, http.StatusNotFound, "no_data_available"},
		{ExternalFetchFailure, http.StatusBadGateway, "external_fetch_failure"},
		{UndefinedStatistic, http.StatusUnprocessableEntity, "undefined_statistic"},
		{ErrorKind(0), http.StatusInternalServerError, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex.AssertAreEqual(t, "status", tt.status, tt.kind.HttpStatus())
			ex.AssertAreEqual(t, "name", tt.name, tt.kind.String())
		})
	}
}
