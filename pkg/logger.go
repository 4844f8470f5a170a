package pkg

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the process-wide logger. InitLogger must run before anything
// logs; both binaries call it first thing in main.
var Logger *zap.Logger

// InitLogger builds the global logger from the current Gin mode: release
// gets JSON on stdout for log shipping, everything else gets the colored
// development encoder.
func InitLogger() {
	var cfg zap.Config
	if gin.Mode() == gin.ReleaseMode {
		cfg = zap.NewProductionConfig()
		cfg.OutputPaths = []string{"stdout"}
		cfg.ErrorOutputPaths = []string{"stderr"}
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	logger, err := cfg.Build(zap.AddStacktrace(zap.DPanicLevel))
	if err != nil {
		panic(err)
	}
	Logger = logger
}
