package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/cuotas-api/pkg/config"
)

func TestLoad_ValoresPorDefectoDelMotorDeCuotas(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.Fees.MaxDiscountPercent)
	assert.Equal(t, 80, cfg.Fees.GlobalCapPercent)
	assert.Equal(t, 50, cfg.Fees.BatchChunkSize)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
}

func TestLoad_LeeVariablesDeEntorno(t *testing.T) {
	t.Setenv("FEES_GLOBAL_CAP_PERCENT", "70")
	t.Setenv("FEES_BATCH_CHUNK_SIZE", "10")
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 70, cfg.Fees.GlobalCapPercent)
	assert.Equal(t, 10, cfg.Fees.BatchChunkSize)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.False(t, cfg.Storage.AutoMigrate)
}

func TestLoad_AutoMigrate(t *testing.T) {
	t.Setenv("DB_AUTO_MIGRATE", "true")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.True(t, cfg.Storage.AutoMigrate)
}

func TestLoad_TopeFueraDeRango(t *testing.T) {
	t.Setenv("FEES_GLOBAL_CAP_PERCENT", "120")

	_, err := config.Load()
	require.Error(t, err)
}

func TestDBConfig_DSNEscapaCaracteresEspeciales(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "socios", Password: "p@ss:word", DBName: "cuotas", SSLMode: "disable"}
	assert.Equal(t, "postgres://socios:p%40ss%3Aword@db:5432/cuotas?sslmode=disable", c.DSN())
	assert.Equal(t, c.DSN(), c.ConnectionString())
}

func TestLoad_MaxConnsDelPool(t *testing.T) {
	t.Setenv("DB_MAX_CONNS", "4")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, int32(4), cfg.DB.MaxConns)
}
