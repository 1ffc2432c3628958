package config

import (
	"strings"
	"testing"
	"time"
)

func validOptions() Options {
	return Options{
		ConfigURL:   DefaultConfigURL,
		ImagesDir:   "/tmp/spaceeye/images",
		Heartbeat:   10 * time.Minute,
		DisplayPoll: 5 * time.Second,
	}
}

func TestDefaultConfigURLIncludesCatalogVersion(t *testing.T) {
	if !strings.Contains(DefaultConfigURL, "/"+CatalogVersion+"/config.json") {
		t.Fatalf("DefaultConfigURL = %q, want catalog version path", DefaultConfigURL)
	}
}

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Options) {}},
		{name: "missing config url", mutate: func(o *Options) { o.ConfigURL = " " }, wantErr: true},
		{name: "relative config url", mutate: func(o *Options) { o.ConfigURL = "/config.json" }, wantErr: true},
		{name: "ftp config url", mutate: func(o *Options) { o.ConfigURL = "ftp://example.com/config.json" }, wantErr: true},
		{name: "missing images dir", mutate: func(o *Options) { o.ImagesDir = "" }, wantErr: true},
		{name: "zero heartbeat", mutate: func(o *Options) { o.Heartbeat = 0 }, wantErr: true},
		{name: "zero display poll", mutate: func(o *Options) { o.DisplayPoll = 0 }, wantErr: true},
		{name: "negative timeout", mutate: func(o *Options) { o.DownloadTimeout = -time.Second }, wantErr: true},
		{name: "negative view", mutate: func(o *Options) { o.View = -1 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := validOptions()
			tt.mutate(&opts)
			err := ValidateRequired(opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateRequired() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultImagesDir(t *testing.T) {
	if dir := DefaultImagesDir(); !strings.Contains(strings.ToLower(dir), "spaceeye") {
		t.Fatalf("DefaultImagesDir() = %q, want a spaceeye directory", dir)
	}
}
