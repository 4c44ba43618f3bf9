package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturacion-recurrente/pkg/config"
)

func TestNewPoolConfig_DesdeCampos(t *testing.T) {
	cfg := config.DBConfig{
		Host: "db", Port: 5433, User: "app", Password: "secreto", DBName: "fact", SSLMode: "disable",
		MaxConns: 12, MinConns: 2,
	}
	pc, err := newPoolConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, "db", pc.ConnConfig.Host)
	assert.Equal(t, uint16(5433), pc.ConnConfig.Port)
	assert.Equal(t, "fact", pc.ConnConfig.Database)
	assert.Equal(t, int32(12), pc.MaxConns)
	assert.Equal(t, int32(2), pc.MinConns)
	assert.NotNil(t, pc.AfterConnect)
}

func TestNewPoolConfig_DatabaseURLTienePrioridad(t *testing.T) {
	cfg := config.DBConfig{
		DatabaseURL: "postgres://u:p@remoto:6543/otra?sslmode=disable",
		Host:        "ignorado",
	}
	pc, err := newPoolConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "remoto", pc.ConnConfig.Host)
	assert.Equal(t, "otra", pc.ConnConfig.Database)
}

func TestNewPoolConfig_MinMayorQueMaxSeIgnora(t *testing.T) {
	cfg := config.DBConfig{Host: "db", Port: 5432, DBName: "fact", SSLMode: "disable", MaxConns: 2, MinConns: 5}
	pc, err := newPoolConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, int32(2), pc.MaxConns)
	assert.Equal(t, int32(0), pc.MinConns)
}

func TestNewPoolConfig_DSNInvalido(t *testing.T) {
	_, err := newPoolConfig(config.DBConfig{DatabaseURL: "postgres://u:p@host:notaport/db"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse DSN")
}
