// Command bsky-post publishes a single post to Bluesky from the command
// line. Credentials come from flags, environment variables, or a YAML config
// file, in that order of precedence.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/a-gubskiy/bluesky-go"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath string
		identifier string
		password   string
		service    string
		text       string
		postURL    string
		noCard     bool
		langs      []string
		imagePaths []string
		altTexts   []string
	)

	flag.StringVar(&configPath, "config", "", "Path to a YAML config file with service, identifier, password, languages")
	flag.StringVar(&identifier, "identifier", envOrDefault("BLUESKY_IDENTIFIER", ""), "Bluesky handle or email")
	flag.StringVar(&password, "password", envOrDefault("BLUESKY_APP_PASSWORD", ""), "Bluesky app password")
	flag.StringVar(&service, "service", envOrDefault("BLUESKY_SERVICE", ""), "Service base URL (default https://bsky.social)")
	flag.StringVar(&text, "text", "", "Post text")
	flag.StringVar(&postURL, "url", "", "URL for the link-preview card (default: first link in the text)")
	flag.BoolVar(&noCard, "no-card", false, "Do not generate a link-preview card")
	flag.Func("lang", "Language tag, repeatable (default en, en-US)", func(v string) error {
		langs = append(langs, v)
		return nil
	})
	flag.Func("image", "Path to an image to attach, repeatable (max 4)", func(v string) error {
		imagePaths = append(imagePaths, v)
		return nil
	})
	flag.Func("alt", "Alt text for the image at the same position, repeatable", func(v string) error {
		altTexts = append(altTexts, v)
		return nil
	})
	flag.Parse()

	if configPath != "" {
		cfg, err := loadFileConfig(configPath)
		if err != nil {
			return err
		}
		if identifier == "" {
			identifier = cfg.Identifier
		}
		if password == "" {
			password = cfg.Password
		}
		if service == "" {
			service = cfg.Service
		}
		if len(langs) == 0 {
			langs = cfg.Languages
		}
	}

	if identifier == "" || password == "" {
		return fmt.Errorf("--identifier and --password are required (or set BLUESKY_IDENTIFIER and BLUESKY_APP_PASSWORD)")
	}
	if text == "" {
		return fmt.Errorf("--text is required")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	opts := []bluesky.Option{
		bluesky.WithLogger(logger),
		bluesky.WithSessionReuse(),
	}
	if service != "" {
		opts = append(opts, bluesky.WithServiceURL(service))
	}
	if len(langs) > 0 {
		opts = append(opts, bluesky.WithLanguages(langs...))
	}

	images, err := loadImages(imagePaths, altTexts)
	if err != nil {
		return err
	}

	client := bluesky.New(identifier, password, opts...)

	post := bluesky.Post{
		Text:            text,
		URL:             postURL,
		Images:          images,
		DisableLinkCard: noCard,
	}

	if err := client.Publish(context.Background(), post); err != nil {
		return err
	}

	fmt.Println("post published")
	return nil
}

func loadImages(paths, alts []string) ([]bluesky.Image, error) {
	images := make([]bluesky.Image, 0, len(paths))
	for i, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read image %s: %w", path, err)
		}

		mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}

		img := bluesky.Image{Content: content, MimeType: mimeType}
		if i < len(alts) {
			img.Alt = alts[i]
		}
		images = append(images, img)
	}
	return images, nil
}
