package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"groupreaper/internal/domain"
)

type HTTP struct {
	Listen string `yaml:"listen"`
}

type Log struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

type Database struct {
	Driver         string `yaml:"driver"`
	DSN            string `yaml:"dsn"`
	MaxConnections int32  `yaml:"max_connections"`
}

// EventStore 为空 base_url 时必须显式设置 allow_memory 才会使用内存事件存储。
type EventStore struct {
	BaseURL       string `yaml:"base_url"`
	QueryAPI      string `yaml:"query_api"`
	AuthEndpoint  string `yaml:"auth_endpoint"`
	Username      string `yaml:"username"`
	Password      string `yaml:"password"`
	StaticToken   string `yaml:"static_token"`
	AuthHeader    string `yaml:"auth_header"`
	TimeoutSecond int    `yaml:"timeout_second"`
	AllowMemory   bool   `yaml:"allow_memory"`
}

// NodeStore 为空 bucket 时必须显式设置 allow_memory 才会使用内存节点存储。
type NodeStore struct {
	Bucket       string `yaml:"bucket"`
	Region       string `yaml:"region"`
	Endpoint     string `yaml:"endpoint"`
	Prefix       string `yaml:"prefix"`
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	UsePathStyle bool   `yaml:"use_path_style"`
	AllowMemory  bool   `yaml:"allow_memory"`
}

// Neo4j 为空 uri 时不启用相似度索引。
type Neo4j struct {
	URI                  string `yaml:"uri"`
	Username             string `yaml:"username"`
	Password             string `yaml:"password"`
	Database             string `yaml:"database"`
	MaxConnectionPool    int    `yaml:"max_connections"`
	ConnectTimeoutSecond int    `yaml:"connect_timeout_second"`
}

type Retry struct {
	Attempts       int `yaml:"attempts"`
	BackoffSeconds int `yaml:"backoff_seconds"`
}

type Deletion struct {
	ChunkSize         int      `yaml:"chunk_size"`
	JobCron           string   `yaml:"job_cron"`
	ReattemptCron     string   `yaml:"reattempt_cron"`
	JobsPerRun        int      `yaml:"jobs_per_run"`
	ChunksPerRun      int      `yaml:"chunks_per_run"`
	MaxAttempts       int      `yaml:"max_attempts"`
	StuckAfterMinutes int      `yaml:"stuck_after_minutes"`
	SkipHooks         []string `yaml:"skip_hooks"`
	Retry             Retry    `yaml:"retry"`
}

type Config struct {
	HTTP       HTTP       `yaml:"http"`
	Log        Log        `yaml:"log"`
	Database   Database   `yaml:"database"`
	EventStore EventStore `yaml:"event_store"`
	NodeStore  NodeStore  `yaml:"node_store"`
	Neo4j      Neo4j      `yaml:"neo4j"`
	Deletion   Deletion   `yaml:"deletion"`
}

// LoadConfig 从文件加载配置并补齐默认值。
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("读取配置失败: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("解析配置失败: %w", err)
	}
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) withDefaults() Config {
	if c.HTTP.Listen == "" {
		c.HTTP.Listen = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Encoding == "" {
		c.Log.Encoding = "console"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.EventStore.TimeoutSecond <= 0 {
		c.EventStore.TimeoutSecond = 30
	}
	if c.Deletion.ChunkSize <= 0 {
		c.Deletion.ChunkSize = 10000
	}
	if c.Deletion.JobCron == "" {
		c.Deletion.JobCron = "@every 1m"
	}
	if c.Deletion.ReattemptCron == "" {
		c.Deletion.ReattemptCron = "@hourly"
	}
	if c.Deletion.JobsPerRun <= 0 {
		c.Deletion.JobsPerRun = 10
	}
	if c.Deletion.ChunksPerRun <= 0 {
		c.Deletion.ChunksPerRun = 100
	}
	if c.Deletion.MaxAttempts <= 0 {
		c.Deletion.MaxAttempts = 5
	}
	if c.Deletion.StuckAfterMinutes <= 0 {
		c.Deletion.StuckAfterMinutes = 30
	}
	if c.Deletion.Retry.Attempts <= 0 {
		c.Deletion.Retry.Attempts = 3
	}
	if c.Deletion.Retry.BackoffSeconds <= 0 {
		c.Deletion.Retry.BackoffSeconds = 1
	}
	return c
}

func (c Config) validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn 不能为空")
	}
	// 内存实现查不到真实事件，会让 event_data 误报完成
	if strings.TrimSpace(c.EventStore.BaseURL) == "" && !c.EventStore.AllowMemory {
		return fmt.Errorf("event_store.base_url 不能为空，测试环境可设置 event_store.allow_memory")
	}
	if strings.TrimSpace(c.NodeStore.Bucket) == "" && !c.NodeStore.AllowMemory {
		return fmt.Errorf("node_store.bucket 不能为空，测试环境可设置 node_store.allow_memory")
	}
	for _, k := range c.Deletion.SkipHooks {
		if domain.EntityKind(k) != domain.KindSimilarity {
			return fmt.Errorf("deletion.skip_hooks 不支持 %q", k)
		}
	}
	return nil
}

// SkipHookKinds 返回跳过的钩子类型。
func (d Deletion) SkipHookKinds() []domain.EntityKind {
	out := make([]domain.EntityKind, 0, len(d.SkipHooks))
	for _, k := range d.SkipHooks {
		out = append(out, domain.EntityKind(k))
	}
	return out
}

func (d Deletion) StuckAfter() time.Duration {
	return time.Duration(d.StuckAfterMinutes) * time.Minute
}

func (r Retry) Backoff() time.Duration {
	return time.Duration(r.BackoffSeconds) * time.Second
}
