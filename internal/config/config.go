package config

import "time"

// Config is the root configuration for the intake functions and server.
type Config struct {
	Project   ProjectConfig   `yaml:"project"`
	Storage   StorageConfig   `yaml:"storage"`
	Directory DirectoryConfig `yaml:"directory"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Limits    LimitsConfig    `yaml:"limits"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	Notify    NotifyConfig    `yaml:"notify"`
	Audit     AuditConfig     `yaml:"audit"`
	Mail      MailConfig      `yaml:"mail"`
	Redis     RedisConfig     `yaml:"redis"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

// ProjectConfig holds Google Cloud project settings.
type ProjectConfig struct {
	ID             string `yaml:"id"              env:"PROJECT_ID"`
	VertexAIRegion string `yaml:"vertex_ai_region" env:"VERTEX_AI_REGION" env-default:"us-central1"`
	ScoringModel   string `yaml:"scoring_model"   env:"SCORING_MODEL"    env-default:"gemini-1.5-pro"`
}

// StorageConfig holds object store settings.
type StorageConfig struct {
	Bucket       string `yaml:"bucket"        env:"INTAKE_BUCKET"`
	UploadPrefix string `yaml:"upload_prefix" env:"INTAKE_UPLOAD_PREFIX" env-default:"intake/"`
	// InboxPrefix is the prefix watched by the object-finalized function.
	InboxPrefix string `yaml:"inbox_prefix" env:"INTAKE_INBOX_PREFIX" env-default:"inbox/"`
}

// DirectoryConfig holds customer directory settings.
type DirectoryConfig struct {
	SpreadsheetID string        `yaml:"spreadsheet_id" env:"DIRECTORY_SPREADSHEET_ID"`
	Range         string        `yaml:"range"          env:"DIRECTORY_RANGE" env-default:"Customers!A2:K"`
	Tab           string        `yaml:"tab"            env:"DIRECTORY_TAB"   env-default:"Customers"`
	TTL           time.Duration `yaml:"ttl"            env:"DIRECTORY_TTL"   env-default:"60s"`
}

// LedgerConfig holds ledger store settings.
type LedgerConfig struct {
	Tab             string        `yaml:"tab"              env:"LEDGER_TAB"              env-default:"Ledger"`
	Window          int           `yaml:"window"           env:"LEDGER_WINDOW"           env-default:"1000"`
	EnsureAttempts  int           `yaml:"ensure_attempts"  env:"LEDGER_ENSURE_ATTEMPTS"  env-default:"3"`
	EnsureBackoff   time.Duration `yaml:"ensure_backoff"   env:"LEDGER_ENSURE_BACKOFF"   env-default:"500ms"`
	DefaultTimeZone string        `yaml:"default_timezone" env:"LEDGER_DEFAULT_TIMEZONE" env-default:"UTC"`
	// SheetsRPS throttles calls against the Sheets API from this process.
	SheetsRPS   float64 `yaml:"sheets_rps"   env:"LEDGER_SHEETS_RPS"   env-default:"5"`
	SheetsBurst int     `yaml:"sheets_burst" env:"LEDGER_SHEETS_BURST" env-default:"10"`
}

// LimitsConfig holds input size limits.
type LimitsConfig struct {
	MaxAttachmentBytes int64 `yaml:"max_attachment_bytes" env:"LIMIT_MAX_ATTACHMENT_BYTES" env-default:"10485760"`
	MaxSubmissionBytes int64 `yaml:"max_submission_bytes" env:"LIMIT_MAX_SUBMISSION_BYTES" env-default:"26214400"`
	MaxAttachments     int   `yaml:"max_attachments"      env:"LIMIT_MAX_ATTACHMENTS"      env-default:"5"`
	MaxExtractChars    int   `yaml:"max_extract_chars"    env:"LIMIT_MAX_EXTRACT_CHARS"    env-default:"50000"`
	MaxScoreChars      int   `yaml:"max_score_chars"      env:"LIMIT_MAX_SCORE_CHARS"      env-default:"30000"`
	MinScoreChars      int   `yaml:"min_score_chars"      env:"LIMIT_MIN_SCORE_CHARS"      env-default:"200"`
}

// ScoringConfig holds AI scoring settings.
type ScoringConfig struct {
	Enabled          bool `yaml:"enabled"           env:"SCORING_ENABLED"           env-default:"true"`
	StructuredRubric bool `yaml:"structured_rubric" env:"SCORING_STRUCTURED_RUBRIC" env-default:"true"`
}

// NotifyConfig holds notification settings.
type NotifyConfig struct {
	Enabled       bool   `yaml:"enabled"         env:"NOTIFY_ENABLED"         env-default:"true"`
	SenderAddress string `yaml:"sender_address"  env:"NOTIFY_SENDER_ADDRESS"`
	ReceiptOnSkip bool   `yaml:"receipt_on_skip" env:"NOTIFY_RECEIPT_ON_SKIP" env-default:"true"`
}

// AuditConfig holds Firestore collection settings.
type AuditConfig struct {
	Collection       string        `yaml:"collection"        env:"AUDIT_COLLECTION"        env-default:"intake_audit"`
	RubricCollection string        `yaml:"rubric_collection" env:"AUDIT_RUBRIC_COLLECTION" env-default:"rubrics"`
	Timeout          time.Duration `yaml:"timeout"           env:"AUDIT_TIMEOUT"           env-default:"5s"`
}

// MailConfig holds inbound-mail push settings.
type MailConfig struct {
	Mailbox      string `yaml:"mailbox"       env:"MAIL_MAILBOX"        env-default:"me"`
	PushAudience string `yaml:"push_audience" env:"MAIL_PUSH_AUDIENCE"`
	VerifyPush   bool   `yaml:"verify_push"   env:"MAIL_VERIFY_PUSH"    env-default:"true"`
	Concurrency  int    `yaml:"concurrency"   env:"MAIL_CONCURRENCY"    env-default:"3"`
}

// RedisConfig enables the cross-instance ledger lock when Addr is set.
type RedisConfig struct {
	Addr     string        `yaml:"addr"     env:"REDIS_ADDR"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db"       env:"REDIS_DB"       env-default:"0"`
	LockTTL  time.Duration `yaml:"lock_ttl" env:"REDIS_LOCK_TTL" env-default:"30s"`
}

// ServerConfig holds standalone HTTP server settings.
type ServerConfig struct {
	ListenAddr      string        `yaml:"listen_addr"      env:"LISTEN_ADDR"             env-default:":8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"120s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}
