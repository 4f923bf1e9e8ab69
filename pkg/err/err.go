package errprocess

import (
	"book_story_service/pkg/logger"

	"go.uber.org/zap"
)

// Wrap logs msg with the cause and returns the cause unchanged,
// so callers can still match it with errors.Is.
func Wrap(msg string, err error, fields ...zap.Field) error {
	if err == nil {
		return nil
	}
	logger.Log.Error(msg, append(fields, zap.Error(err))...)
	return err
}
