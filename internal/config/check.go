package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

// CheckConfigValidity reports every problem found in v at once.
func CheckConfigValidity(v *viper.Viper) error {
	var errs []error
	add := func(format string, args ...any) { errs = append(errs, fmt.Errorf(format, args...)) }

	if strings.TrimSpace(v.GetString("data_dir")) == "" && strings.TrimSpace(v.GetString("db_path")) == "" {
		add("data_dir is required when db_path is empty")
	}
	if strings.TrimSpace(v.GetString("http_addr")) == "" {
		add("http_addr is required")
	}
	if v.GetInt("http.max_body_mb") <= 0 {
		add("http.max_body_mb must be greater than 0")
	}
	if len(v.GetStringSlice("http.tls_domains")) > 0 && strings.TrimSpace(v.GetString("http.tls_email")) == "" {
		add("http.tls_email is required when http.tls_domains is set")
	}
	if v.GetInt("auth.session_hours") <= 0 {
		add("auth.session_hours must be greater than 0")
	}
	if u, err := url.Parse(v.GetString("gpt.base_url")); err != nil || u.Scheme == "" || u.Host == "" {
		add("gpt.base_url is not a valid url")
	}
	if v.GetInt("gpt.timeout_seconds") <= 0 {
		add("gpt.timeout_seconds must be greater than 0")
	}
	switch strings.ToLower(v.GetString("log.level")) {
	case "debug", "info", "warn", "error":
	default:
		add("log.level must be one of debug, info, warn, error")
	}
	switch strings.ToLower(v.GetString("log.format")) {
	case "text", "json":
	default:
		add("log.format must be text or json")
	}
	return errors.Join(errs...)
}

// CheckServeConfig adds the requirements that only apply to a running server.
func CheckServeConfig(v *viper.Viper) error {
	var errs []error
	if err := CheckConfigValidity(v); err != nil {
		errs = append(errs, err)
	}
	if len(v.GetString("auth.secret")) < 16 {
		errs = append(errs, errors.New("auth.secret must be at least 16 characters"))
	}
	return errors.Join(errs...)
}
