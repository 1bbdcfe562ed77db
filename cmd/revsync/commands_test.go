package main

import (
	"bytes"
	"flag"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/urfave/cli/v2"

	"github.com/shopops/revsync/internal/application/revenue"
	"github.com/shopops/revsync/internal/domain/integration"
)

func TestGinMode(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"production", gin.ReleaseMode},
		{"staging", gin.ReleaseMode},
		{"testing", gin.TestMode},
		{"development", gin.DebugMode},
		{"", gin.DebugMode},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			assert.Equal(t, tt.want, ginMode(tt.env))
		})
	}
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	app := &cli.App{Writer: &buf}
	c := cli.NewContext(app, flag.NewFlagSet("test", flag.ContinueOnError), nil)

	printReport(c, &revenue.SyncReport{
		RunID:       uuid.New(),
		Date:        time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC),
		Column:      "15日",
		Status:      integration.SyncStatusSuccess,
		OrderCount:  8,
		SkuCount:    3,
		SyncedCount: 3,
		CreatedRows: 1,
		UpdatedRows: 2,
		Duration:    2345 * time.Millisecond,
	})

	out := buf.String()
	assert.Contains(t, out, "2024-04-15 (column 15日)")
	assert.Contains(t, out, "status:   SUCCESS")
	assert.Contains(t, out, "3 synced / 3 total")
	assert.Contains(t, out, "1 created, 2 updated")
	assert.Contains(t, out, "2.345s")
}

func TestCommands(t *testing.T) {
	names := make([]string, 0)
	for _, cmd := range []*cli.Command{syncCommand(), inspectCommand(), serveCommand(), migrateCommand()} {
		names = append(names, cmd.Name)
	}
	assert.Equal(t, []string{"sync", "inspect", "serve", "migrate"}, names)

	sub := make([]string, 0)
	for _, cmd := range migrateCommand().Subcommands {
		sub = append(sub, cmd.Name)
	}
	assert.Equal(t, []string{"up", "down", "version", "force"}, sub)
}
