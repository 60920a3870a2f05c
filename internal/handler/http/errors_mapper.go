package http

import (
	"errors"
	"net/http"

	"github.com/questlog-app/questlog/internal/service"
	"github.com/questlog-app/questlog/internal/store"
)

var errorStatusMap = map[error]int{
	service.ErrInvalidDataProvided:     http.StatusBadRequest,
	service.ErrUnknownTable:            http.StatusBadRequest,
	service.ErrNoRecordID:              http.StatusBadRequest,
	service.ErrWrongPassword:           http.StatusUnauthorized,
	service.ErrTokenIsExpiredOrInvalid: http.StatusUnauthorized,

	store.ErrLoginTaken:     http.StatusConflict,
	store.ErrUserNotFound:   http.StatusNotFound,
	store.ErrRecordNotFound: http.StatusNotFound,

	store.ErrBuildingQuery:  http.StatusInternalServerError,
	store.ErrExecutingQuery: http.StatusInternalServerError,
	store.ErrOpeningTx:      http.StatusInternalServerError,
	store.ErrCommittingTx:   http.StatusInternalServerError,
	store.ErrScanningRow:    http.StatusInternalServerError,
	store.ErrScanningRows:   http.StatusInternalServerError,
}

func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}
