package chatview

import (
	"os"
	"testing"

	"book_story_service/pkg/logger"
)

// the logger is swapped once; goroutines of an earlier test may still be logging
func TestMain(m *testing.M) {
	logger.SetNewNop()
	os.Exit(m.Run())
}
