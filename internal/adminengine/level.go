package adminengine

import (
	"log/slog"

	"github.com/nugget/kadmin/internal/config"
)

// levelTrace mirrors internal/config's wire-level forensic log level so
// the notifier can log its add_source/del_source/trigger operations
// without them showing up at Debug.
const levelTrace = config.LevelTrace

var _ slog.Level = levelTrace
