package configs

import (
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/riskline/credit-scoring/pkg/utils"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// ServerConfig holds configuration for the scoring API.
type ServerConfig struct {
	Port           string `mapstructure:"PORT" validate:"required"`
	RegistryDir    string `mapstructure:"REGISTRY_DIR"`
	RegistryDbAddr string `mapstructure:"REGISTRY_DB_ADDR"`
	MaxDbCons      int32  `mapstructure:"MAX_DB_CONNECTIONS" validate:"min=1"`
	MinDbCons      int32  `mapstructure:"MIN_DB_CONNECTIONS" validate:"min=1"`
	ModelName      string `mapstructure:"MODEL_NAME" validate:"required"`
	ModelStage     string `mapstructure:"MODEL_STAGE" validate:"required"`
}

// TrainerConfig holds configuration for the training CLI. Either DATA_PATH
// (a prepared modeling table) or TRANSACTIONS_PATH + LABELS_PATH (raw
// transactions run through the feature pipeline) must be set; the CLI
// enforces that.
type TrainerConfig struct {
	DataPath         string  `mapstructure:"DATA_PATH"`
	TransactionsPath string  `mapstructure:"TRANSACTIONS_PATH"`
	LabelsPath       string  `mapstructure:"LABELS_PATH"`
	LabelColumn      string  `mapstructure:"LABEL_COLUMN" validate:"required"`
	ModelKind        string  `mapstructure:"MODEL_KIND" validate:"required"`
	TestFraction     float64 `mapstructure:"TEST_FRACTION" validate:"gt=0,lt=1"`
	Seed             int64   `mapstructure:"SEED"`
	RegistryDir      string  `mapstructure:"REGISTRY_DIR" validate:"required"`
	ModelName        string  `mapstructure:"MODEL_NAME" validate:"required"`
	Promote          bool    `mapstructure:"PROMOTE"`
}

// LoadServer reads the scoring API configuration from the environment.
func LoadServer(logger *zap.Logger) (*ServerConfig, error) {
	initViper(logger, "server")

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("REGISTRY_DIR", "./mlruns")
	viper.SetDefault("MAX_DB_CONNECTIONS", "4")
	viper.SetDefault("MIN_DB_CONNECTIONS", "1")
	viper.SetDefault("MODEL_NAME", "credit-risk-model")
	viper.SetDefault("MODEL_STAGE", "Production")

	var cfg ServerConfig
	if err := utils.ParseStructEnv(&cfg); err != nil {
		return nil, err
	}
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, utils.FormatConfigErrors(logger, err, cfg)
	}
	return &cfg, nil
}

// LoadTrainer reads the training CLI configuration from the environment.
func LoadTrainer(logger *zap.Logger) (*TrainerConfig, error) {
	initViper(logger, "trainer")

	viper.SetDefault("LABEL_COLUMN", "AnyFraud")
	viper.SetDefault("MODEL_KIND", "logistic_regression")
	viper.SetDefault("TEST_FRACTION", "0.2")
	viper.SetDefault("SEED", "42")
	viper.SetDefault("REGISTRY_DIR", "./mlruns")
	viper.SetDefault("MODEL_NAME", "credit-risk-model")

	var cfg TrainerConfig
	if err := utils.ParseStructEnv(&cfg); err != nil {
		return nil, err
	}
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, utils.FormatConfigErrors(logger, err, cfg)
	}
	return &cfg, nil
}

func initViper(logger *zap.Logger, name string) {
	viper.SetEnvPrefix("app") // Prefix for env vars
	viper.AutomaticEnv()

	// Optional: Read from config yaml if it exists
	if gin.ReleaseMode == gin.Mode() {
		viper.SetConfigName("config." + name + ".prod")
	} else if gin.TestMode == gin.Mode() {
		logger.Warn("running in test mode")
		viper.SetConfigName("config." + name + ".test")
	} else {
		logger.Warn("running in development mode")
		viper.SetConfigName("config." + name + ".dev")
	}
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	_ = viper.ReadInConfig() // Ignore if no file
}
