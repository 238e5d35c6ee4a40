package config

import (
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/oolongworks/teausage/internal/domain"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	App       AppConfig
	Cache     CacheConfig
	Storage   StorageConfig
	Reference ReferenceConfig
	Planner   PlannerConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type AppConfig struct {
	RawDir    string
	TrimDir   string
	OutputDir string

	// Items always made with full ice even when the register records no
	// ice modifier.
	FixedIceItems []string
}

type CacheConfig struct {
	Enabled           bool
	RedisURL          string
	RedisHost         string
	RedisPort         string
	RedisPassword     string
	RedisDB           int
	SummaryTTLSeconds int
}

// StorageConfig points at the S3-compatible bucket used to pull raw
// exports and archive run outputs.
type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// ReferenceConfig locates the rule tables loaded once per run.
type ReferenceConfig struct {
	TokenMapPath        string
	ItemRulesPath       string
	BlendRulesPath      string
	RecipeOverridesPath string
	ItemBOMPath         string
	SugarMapPath        string
	ComponentUnitsPath  string
	ManualSamplesDir    string
	BatchEstimatesPath  string
}

// PlannerConfig holds the fixed constants behind the reorder math.
type PlannerConfig struct {
	ZeroIceBaseMl     float64
	BatchYieldMl      float64
	LeafGramsPerBatch float64
	BagGrams          float64
	MlPerJellyScoop   float64
	HotWaterMl        float64
	IceGrams          float64
}

// Validate fails fast on constants that would make reorder numbers
// meaningless. The pipeline must not write output on a
// bad PlannerConfig.
func (p PlannerConfig) Validate() error {
	checks := []struct {
		name  string
		value float64
	}{
		{"PLANNER_ZERO_ICE_BASE_ML", p.ZeroIceBaseMl},
		{"PLANNER_BATCH_YIELD_ML", p.BatchYieldMl},
		{"PLANNER_LEAF_GRAMS_PER_BATCH", p.LeafGramsPerBatch},
		{"PLANNER_BAG_GRAMS", p.BagGrams},
		{"PLANNER_ML_PER_JELLY_SCOOP", p.MlPerJellyScoop},
	}
	for _, c := range checks {
		if c.value <= 0 {
			return &domain.ConfigurationError{Field: c.name, Reason: "must be positive"}
		}
	}
	return nil
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "teausage")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("APP_RAW_DIR", "./data/raw")
		viper.SetDefault("APP_TRIM_DIR", "./data/trim")
		viper.SetDefault("APP_OUTPUT_DIR", "./data/analysis")
		viper.SetDefault("APP_FIXED_ICE_ITEMS", []string{
			"Strawberry Matcha Latte",
			"Mango Matcha Latte",
			"Chestnut Forest",
		})
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_SUMMARY_TTL_SECONDS", 60)
		viper.SetDefault("STORAGE_ENABLED", false)
		viper.SetDefault("STORAGE_ENDPOINT", "")
		viper.SetDefault("STORAGE_BUCKET", "teausage-archive")
		viper.SetDefault("STORAGE_REGION", "us-east-1")
		viper.SetDefault("STORAGE_USE_SSL", true)

		viper.SetDefault("REF_TOKEN_MAP", "./data/reference/modifier_token_map.csv")
		viper.SetDefault("REF_ITEM_RULES", "./data/reference/item_rules.csv")
		viper.SetDefault("REF_BLEND_RULES", "./data/reference/item_blend_rules.csv")
		viper.SetDefault("REF_RECIPE_OVERRIDES", "./data/reference/recipe_overrides.csv")
		viper.SetDefault("REF_ITEM_BOM", "./data/reference/item_bom.csv")
		viper.SetDefault("REF_SUGAR_MAP", "./data/reference/sugar_pct_map.csv")
		viper.SetDefault("REF_COMPONENT_UNITS", "./data/reference/component_units.csv")
		viper.SetDefault("REF_MANUAL_SAMPLES_DIR", "./data/experiment")
		viper.SetDefault("REF_BATCH_ESTIMATES", "./data/analysis/batch_yield_estimates.csv")

		viper.SetDefault("PLANNER_ZERO_ICE_BASE_ML", 550.0)
		viper.SetDefault("PLANNER_BATCH_YIELD_ML", 6504.0)
		viper.SetDefault("PLANNER_LEAF_GRAMS_PER_BATCH", 160.0)
		viper.SetDefault("PLANNER_BAG_GRAMS", 600.0)
		viper.SetDefault("PLANNER_ML_PER_JELLY_SCOOP", 87.0)
		viper.SetDefault("PLANNER_HOT_WATER_ML", 4200.0)
		viper.SetDefault("PLANNER_ICE_GRAMS", 2800.0)

		// Read from environment variables
		viper.AutomaticEnv()

		// Ensure working directories exist
		ensureDir(viper.GetString("APP_TRIM_DIR"))
		ensureDir(viper.GetString("APP_OUTPUT_DIR"))

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			App: AppConfig{
				RawDir:        viper.GetString("APP_RAW_DIR"),
				TrimDir:       viper.GetString("APP_TRIM_DIR"),
				OutputDir:     viper.GetString("APP_OUTPUT_DIR"),
				FixedIceItems: viper.GetStringSlice("APP_FIXED_ICE_ITEMS"),
			},
			Cache: CacheConfig{
				Enabled:           viper.GetBool("CACHE_ENABLED"),
				RedisURL:          viper.GetString("REDIS_URL"),
				RedisHost:         viper.GetString("REDIS_HOST"),
				RedisPort:         viper.GetString("REDIS_PORT"),
				RedisPassword:     viper.GetString("REDIS_PASSWORD"),
				RedisDB:           viper.GetInt("REDIS_DB"),
				SummaryTTLSeconds: viper.GetInt("CACHE_SUMMARY_TTL_SECONDS"),
			},
			Storage: StorageConfig{
				Enabled:   viper.GetBool("STORAGE_ENABLED"),
				Endpoint:  viper.GetString("STORAGE_ENDPOINT"),
				AccessKey: viper.GetString("STORAGE_ACCESS_KEY"),
				SecretKey: viper.GetString("STORAGE_SECRET_KEY"),
				Bucket:    viper.GetString("STORAGE_BUCKET"),
				Region:    viper.GetString("STORAGE_REGION"),
				UseSSL:    viper.GetBool("STORAGE_USE_SSL"),
			},
			Reference: ReferenceConfig{
				TokenMapPath:        viper.GetString("REF_TOKEN_MAP"),
				ItemRulesPath:       viper.GetString("REF_ITEM_RULES"),
				BlendRulesPath:      viper.GetString("REF_BLEND_RULES"),
				RecipeOverridesPath: viper.GetString("REF_RECIPE_OVERRIDES"),
				ItemBOMPath:         viper.GetString("REF_ITEM_BOM"),
				SugarMapPath:        viper.GetString("REF_SUGAR_MAP"),
				ComponentUnitsPath:  viper.GetString("REF_COMPONENT_UNITS"),
				ManualSamplesDir:    viper.GetString("REF_MANUAL_SAMPLES_DIR"),
				BatchEstimatesPath:  viper.GetString("REF_BATCH_ESTIMATES"),
			},
			Planner: PlannerConfig{
				ZeroIceBaseMl:     viper.GetFloat64("PLANNER_ZERO_ICE_BASE_ML"),
				BatchYieldMl:      viper.GetFloat64("PLANNER_BATCH_YIELD_ML"),
				LeafGramsPerBatch: viper.GetFloat64("PLANNER_LEAF_GRAMS_PER_BATCH"),
				BagGrams:          viper.GetFloat64("PLANNER_BAG_GRAMS"),
				MlPerJellyScoop:   viper.GetFloat64("PLANNER_ML_PER_JELLY_SCOOP"),
				HotWaterMl:        viper.GetFloat64("PLANNER_HOT_WATER_ML"),
				IceGrams:          viper.GetFloat64("PLANNER_ICE_GRAMS"),
			},
		}
	})

	return instance
}

func ensureDir(dir string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
