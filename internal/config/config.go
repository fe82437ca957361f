package config

import (
	"time"

	"github.com/urfave/cli/v3"
)

type Config struct {
	App
	PostgreSQL
	HTTP
}

type App struct {
	InputDirectory   string
	ArchiveDirectory string
	ErrorDirectory   string
	ScanInterval     time.Duration
	Workers          int
	LockStaleAfter   time.Duration
	CSVSeparator     rune
	FallbackEncoding string
	RunOnce          bool
}

type PostgreSQL struct {
	Host     string
	Port     string
	Username string
	Password string
	DBName   string
}

type HTTP struct {
	Host         string
	Port         string
	IdleTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func Load(cmd *cli.Command) *Config {
	separator := ';'
	if s := cmd.String("csv-separator"); s != "" {
		separator = []rune(s)[0]
	}

	return &Config{
		App: App{
			InputDirectory:   cmd.String("input-dir"),
			ArchiveDirectory: cmd.String("archive-dir"),
			ErrorDirectory:   cmd.String("error-dir"),
			ScanInterval:     cmd.Duration("scan-interval"),
			Workers:          int(cmd.Int("workers")),
			LockStaleAfter:   cmd.Duration("lock-stale-after"),
			CSVSeparator:     separator,
			FallbackEncoding: cmd.String("fallback-encoding"),
			RunOnce:          cmd.Bool("once"),
		},
		PostgreSQL: PostgreSQL{
			Host:     cmd.String("pg-host"),
			Port:     cmd.String("pg-port"),
			Username: cmd.String("pg-username"),
			Password: cmd.String("pg-password"),
			DBName:   cmd.String("pg-dbname"),
		},
		HTTP: HTTP{
			Host:         cmd.String("http-host"),
			Port:         cmd.String("http-port"),
			IdleTimeout:  cmd.Duration("http-idle-timeout"),
			ReadTimeout:  cmd.Duration("http-read-timeout"),
			WriteTimeout: cmd.Duration("http-write-timeout"),
		},
	}
}
