package config

import (
	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"quotegrid"`
	Store       string `env:"STORE"        envDefault:"postgres"`

	Server ServerConfig `envPrefix:"SERVER_"`
	Auth   AuthConfig   `envPrefix:"JWT_"`
	DB     DBConfig     `envPrefix:"DB_"`
	Redis  RedisConfig  `envPrefix:"REDIS_"`
	Email  EmailConfig  `envPrefix:"EMAIL_"`
	Jaeger JaegerConfig `envPrefix:"JAEGER_"`
}

type ServerConfig struct {
	Mode   string `env:"MODE"   envDefault:"dev"`
	Port   int    `env:"PORT"   envDefault:"8080"`
	Scheme string `env:"SCHEME" envDefault:"http"`
	Domain string `env:"DOMAIN" envDefault:"localhost"`
}

type AuthConfig struct {
	Secret string `env:"SECRET,required"`
	Issuer string `env:"ISSUER" envDefault:"quotegrid"`
}

type DBConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"postgres"`
	Password string `env:"PASSWORD" envDefault:"postgres"`
	Database string `env:"DATABASE" envDefault:"quotegrid"`
}

type RedisConfig struct {
	Addr string `env:"ADDR" envDefault:"localhost:6379"`
	Pass string `env:"PASS" envDefault:""`
}

type EmailConfig struct {
	Enabled bool   `env:"ENABLED" envDefault:"false"`
	Server  string `env:"SERVER"  envDefault:"smtp.gmail.com"`
	Port    int    `env:"PORT"    envDefault:"587"`
	User    string `env:"USER"    envDefault:""`
	Pass    string `env:"PASS"    envDefault:""`
	Admin   string `env:"ADMIN"   envDefault:""`
}

type JaegerConfig struct {
	Sampler  JaegerSamplerConfig  `envPrefix:"SAMPLER_"`
	Reporter JaegerReporterConfig `envPrefix:"REPORTER_"`
}

type JaegerSamplerConfig struct {
	Type  string `env:"TYPE"  envDefault:"const"`
	Param int    `env:"PARAM" envDefault:"1"`
}

type JaegerReporterConfig struct {
	LogSpans           bool   `env:"LOG_SPANS"       envDefault:"false"`
	LocalAgentHostPort string `env:"AGENT_HOST_PORT" envDefault:"localhost:6831"`
}

// MustLoad reads the optional .env file at path, then parses the process
// environment into Config. Missing required values are fatal.
func MustLoad(path string) Config {
	if err := godotenv.Load(path); err != nil {
		zap.L().Info("No .env file found, reading environment", zap.String("path", path))
	}

	conf := Config{}
	if err := env.Parse(&conf); err != nil {
		zap.L().Fatal("failed to parse environment", zap.Error(err))
	}

	return conf
}
