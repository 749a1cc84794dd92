package app

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yungbote/surveyreport-backend/internal/clients/chartrender"
	"github.com/yungbote/surveyreport-backend/internal/data/db"
	"github.com/yungbote/surveyreport-backend/internal/jobs/worker"
	"github.com/yungbote/surveyreport-backend/internal/platform/envutil"
	"github.com/yungbote/surveyreport-backend/internal/platform/gcp"
	"github.com/yungbote/surveyreport-backend/internal/platform/logger"
)

const (
	ChartRenderRemote = "remote"
	ChartRenderLocal  = "local"
)

type Config struct {
	ServiceName string
	Environment string
	HTTPAddr    string
	CORSOrigins []string

	Database db.Config
	Worker   worker.Config

	Storage     gcp.StorageConfig
	TemplateKey string
	TemplateTTL time.Duration

	// Chart image
	ChartRenderMode string
	ChartBaseURL    string
	ChartRender     chartrender.Config
	ChartViewport   chartrender.Viewport
	ChartSettle     time.Duration

	// Report pipeline
	ReferenceTarget      decimal.Decimal
	OverallPolicy        string
	CompletedOnlyAverage bool
	LogoRequired         bool

	// Company lock
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	LockTTL       time.Duration

	MetricsEnabled   bool
	MetricsAddr      string
	QueueScrapeEvery time.Duration
}

func LoadConfig(log *logger.Logger) Config {
	reference := envutil.Float("REPORT_REFERENCE_TARGET", 80, log)
	if reference <= 0 || reference > 100 {
		log.Warn("REPORT_REFERENCE_TARGET out of range, using 80", "value", reference)
		reference = 80
	}

	return Config{
		ServiceName: envutil.String("SERVICE_NAME", "surveyreport", log),
		Environment: envutil.String("ENVIRONMENT", "development", log),
		HTTPAddr:    envutil.String("HTTP_ADDR", ":8080", log),
		CORSOrigins: splitList(envutil.String("CORS_ALLOWED_ORIGINS", "", log)),

		Database: db.ConfigFromEnv(log),
		Worker:   worker.ConfigFromEnv(log),

		Storage:     loadStorageConfig(log),
		TemplateKey: envutil.String("REPORT_TEMPLATE_KEY", "templates/report.pdf", log),
		TemplateTTL: envutil.Seconds("REPORT_TEMPLATE_TTL_SECONDS", 10*time.Minute, log),

		ChartRenderMode: strings.ToLower(envutil.String("CHART_RENDER_MODE", ChartRenderLocal, log)),
		ChartBaseURL:    envutil.String("CHART_BASE_URL", "", log),
		ChartRender: chartrender.Config{
			Endpoint:        envutil.String("CHART_RENDER_ENDPOINT", "", log),
			Timeout:         envutil.Seconds("CHART_RENDER_TIMEOUT_SECONDS", 30*time.Second, log),
			MaxAttempts:     uint(max(1, envutil.Int("CHART_RENDER_MAX_ATTEMPTS", 3, log))),
			InitialInterval: envutil.Millis("CHART_RENDER_BACKOFF_MS", 500*time.Millisecond, log),
		},
		ChartViewport: chartrender.Viewport{
			Width:  envutil.Int("CHART_VIEWPORT_WIDTH", 1600, log),
			Height: envutil.Int("CHART_VIEWPORT_HEIGHT", 800, log),
		},
		ChartSettle: envutil.Millis("CHART_SETTLE_MS", 2*time.Second, log),

		ReferenceTarget:      decimal.NewFromFloat(reference).Round(2),
		OverallPolicy:        envutil.String("SCORING_OVERALL_POLICY", "unweighted", log),
		CompletedOnlyAverage: envutil.Bool("COMPANY_AVERAGE_COMPLETED_ONLY", false, log),
		LogoRequired:         envutil.Bool("REPORT_LOGO_REQUIRED", false, log),

		RedisAddr:     envutil.String("REDIS_ADDR", "", log),
		RedisPassword: envutil.String("REDIS_PASSWORD", "", log),
		RedisDB:       envutil.Int("REDIS_DB", 0, log),
		LockTTL:       envutil.Seconds("COMPANY_LOCK_TTL_SECONDS", 30*time.Second, log),

		MetricsEnabled:   envutil.Bool("METRICS_ENABLED", false, log),
		MetricsAddr:      envutil.String("METRICS_ADDR", "", log),
		QueueScrapeEvery: envutil.Seconds("METRICS_QUEUE_SCRAPE_SECONDS", 15*time.Second, log),
	}
}

func loadStorageConfig(log *logger.Logger) gcp.StorageConfig {
	emulatorHost := envutil.String("STORAGE_EMULATOR_HOST", "", log)
	mode, inferred := gcp.InferStorageMode(envutil.String("OBJECT_STORAGE_MODE", "", log), emulatorHost)
	return gcp.StorageConfig{
		Mode:          mode,
		Inferred:      inferred,
		EmulatorHost:  emulatorHost,
		LocalRoot:     envutil.String("LOCAL_STORAGE_ROOT", "./data/objects", log),
		PublicBaseURL: envutil.String("OBJECT_STORAGE_PUBLIC_BASE_URL", "", log),
		Buckets: gcp.BucketNames{
			Report:    envutil.String("REPORT_GCS_BUCKET_NAME", "", log),
			Asset:     envutil.String("ASSET_GCS_BUCKET_NAME", "", log),
			ReportCDN: envutil.String("REPORT_CDN_DOMAIN", "", log),
			AssetCDN:  envutil.String("ASSET_CDN_DOMAIN", "", log),
		},
		CredentialsJSON: envutil.String("GOOGLE_APPLICATION_CREDENTIALS_JSON", "", log),
		CredentialsFile: envutil.String("GOOGLE_APPLICATION_CREDENTIALS", "", log),
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
