// Package apierr maps engine errors onto the JSON error envelope.
package apierr

import (
	"errors"
	"net/http"

	"github.com/dalemusser/stratacloud/internal/app/drive"
	"github.com/dalemusser/stratacloud/internal/app/system/jsonutil"
	"go.uber.org/zap"
)

func status(kind drive.Kind) int {
	switch kind {
	case drive.KindNotFound:
		return http.StatusNotFound
	case drive.KindForbidden:
		return http.StatusForbidden
	case drive.KindNameConflict:
		return http.StatusConflict
	case drive.KindCyclicMove, drive.KindSelfMove, drive.KindNegativeQuota, drive.KindInvalidInput:
		return http.StatusBadRequest
	case drive.KindQuotaExceeded:
		return http.StatusRequestEntityTooLarge
	case drive.KindStorageFault:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Write renders err as {"error": kind, "detail": detail}. Untyped errors
// become an opaque 500; their detail is logged, never sent to the client.
func Write(w http.ResponseWriter, logger *zap.Logger, err error) {
	var de *drive.Error
	if errors.As(err, &de) {
		jsonutil.ErrorKind(w, status(de.Kind), string(de.Kind), de.Detail)
		return
	}
	if logger != nil {
		logger.Error("unhandled engine error", zap.Error(err))
	}
	jsonutil.ErrorKind(w, http.StatusInternalServerError, "internal", "internal server error")
}
