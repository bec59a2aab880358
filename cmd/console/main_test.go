package main

import (
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestSetupLogger(t *testing.T) {
	t.Cleanup(func() { log.SetLevel(log.InfoLevel) })

	tests := []struct {
		level   string
		want    log.Level
		wantErr bool
	}{
		{level: "debug", want: log.DebugLevel},
		{level: "WARN", want: log.WarnLevel},
		{level: "error", want: log.ErrorLevel},
		{level: "chatty", want: log.InfoLevel, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			err := setupLogger(tt.level)
			if (err != nil) != tt.wantErr {
				t.Fatalf("setupLogger(%q) error = %v, wantErr %v", tt.level, err, tt.wantErr)
			}
			if got := log.GetLevel(); got != tt.want {
				t.Errorf("expected level %s, got %s", tt.want, got)
			}
		})
	}
}
