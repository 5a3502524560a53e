package config

import (
	"os"
	"path/filepath"
	"testing"
)

const testYAML = `
name: "dinein_order"
mode: "dev"
port: 8080
grpc_port: 8389
machine_id: 3
log:
  level: "info"
  filename: "order.log"
mysql:
  host: "db.local"
  port: 3306
  dbname: "smdc"
redis:
  catalog_ttl: 60
order:
  pay_timeout_minutes: 15
image:
  base_url: "http://img.local"
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(testYAML), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestInit(t *testing.T) {
	t.Setenv("SMDC_MYSQL_HOST", "db.override")

	if err := Init(writeConfig(t)); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	if Conf.Name != "dinein_order" || Conf.Port != 8080 || Conf.MachineID != 3 {
		t.Fatalf("unexpected top level config: %+v", Conf)
	}
	if Conf.MySQLConfig == nil || Conf.MySQLConfig.DB != "smdc" {
		t.Fatalf("mysql section not loaded: %+v", Conf.MySQLConfig)
	}
	if Conf.MySQLConfig.Host != "db.override" {
		t.Fatalf("env override not applied, host=%q", Conf.MySQLConfig.Host)
	}
	if Conf.OrderConfig.PayTimeoutMinutes != 15 {
		t.Fatalf("pay timeout=%d, want 15", Conf.OrderConfig.PayTimeoutMinutes)
	}
	if Conf.RedisConfig.CatalogTTL != 60 {
		t.Fatalf("catalog ttl=%d, want 60", Conf.RedisConfig.CatalogTTL)
	}
	if Conf.ImageConfig.BaseURL != "http://img.local" {
		t.Fatalf("image base url=%q", Conf.ImageConfig.BaseURL)
	}
}

func TestInit_MissingFile(t *testing.T) {
	if err := Init(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
