// Package config предоставляет структуры и функции для парсинга и загрузки конфига.
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек системы.
type Config struct {
	Env     string `yaml:"env" env:"ENV" env-default:"local"`
	DataDir string `yaml:"data_dir" env:"DATA_DIR" env-default:"data"`

	// BlockWhileFined включает историческое правило «нельзя брать при
	// неоплаченной задолженности». По умолчанию действует только правило
	// про просроченные займы.
	BlockWhileFined bool `yaml:"block_while_fined" env:"BLOCK_WHILE_FINED" env-default:"false"`

	Admin    `yaml:"admin"`
	SMTP     `yaml:"smtp"`
	Reminder `yaml:"reminder"`
}

// Admin структура с учётными данными единственного администратора.
type Admin struct {
	AdminUsername string `yaml:"username" env:"ADMIN_USERNAME" env-default:"admin"`
	// AdminPasswordHash bcrypt-хэш пароля администратора.
	AdminPasswordHash string `yaml:"password_hash" env:"ADMIN_PASSWORD_HASH"`
}

// SMTP структура для настройки почтового транспорта напоминаний.
type SMTP struct {
	SMTPHost string `yaml:"host" env:"SMTP_HOST"`
	SMTPPort string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	SMTPUser string `yaml:"user" env:"SMTP_USER"`
	SMTPPass string `yaml:"pass" env:"SMTP_PASS"`
}

// Reminder структура для настройки периодической рассылки напоминаний.
type Reminder struct {
	CheckInterval time.Duration `yaml:"check_interval" env:"REMINDER_CHECK_INTERVAL" env-default:"12h"`
}

// MustLoad загружает конфиг и завершает процесс при ошибке.
//
// Если переменная окружения CONFIG_PATH задана, читается YAML-файл,
// иначе конфиг собирается только из переменных окружения.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("cannot load config: %s", err)
	}
	return cfg
}

// Load загружает конфиг из файла по CONFIG_PATH или из окружения.
func Load() (*Config, error) {
	const op = "config.Load"
	var cfg Config

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &cfg, nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: file %s does not exist", op, configPath)
	}
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}
