package migration

import (
	"bytes"
	"testing"
	"testing/fstest"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewRunner_Defaults(t *testing.T) {
	r := NewRunner(nil, Options{FS: fstest.MapFS{}, Dir: "migrations"})

	assert.Equal(t, "schema_migrations", r.opts.Table)
	assert.Equal(t, 30*time.Second, r.opts.LockTimeout)

	r = NewRunner(nil, Options{Table: "admin_schema", LockTimeout: time.Second})
	assert.Equal(t, "admin_schema", r.opts.Table)
	assert.Equal(t, time.Second, r.opts.LockTimeout)
}

func TestMigrateLogger(t *testing.T) {
	var buf bytes.Buffer
	l := migrateLogger{log: zerolog.New(&buf).Level(zerolog.DebugLevel)}

	assert.True(t, l.Verbose())
	l.Printf("Finished %d/u %s\n", 3, "machines")
	assert.Contains(t, buf.String(), "Finished 3/u machines")

	quiet := migrateLogger{log: zerolog.New(&buf).Level(zerolog.InfoLevel)}
	assert.False(t, quiet.Verbose())
}
