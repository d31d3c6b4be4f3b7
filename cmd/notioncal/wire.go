package main

import (
	"context"

	"notioncal/internal/config"
	"notioncal/internal/gcal"
	"notioncal/internal/notion"
	"notioncal/internal/reconcile"
)

func newFetcher(cfg *config.Config) *notion.Fetcher {
	client := notion.New(cfg.Notion.Token,
		notion.WithBaseURL(cfg.Notion.BaseURL),
		notion.WithVersion(cfg.Notion.Version),
	)
	return notion.NewFetcher(client, cfg.Notion.DatabaseID, cfg.PropertyNames())
}

func newCalendar(ctx context.Context, cfg *config.Config) (*gcal.Calendar, error) {
	opts, err := gcal.ClientOptions(ctx, cfg.Google.CredentialsFile, cfg.Google.TokenFile)
	if err != nil {
		return nil, err
	}
	return gcal.New(ctx, cfg.Google.CalendarID, opts...)
}

func newReconciler(ctx context.Context, cfg *config.Config) (*reconcile.Reconciler, error) {
	opts, err := cfg.SyncOptions()
	if err != nil {
		return nil, err
	}
	cal, err := newCalendar(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return reconcile.New(newFetcher(cfg), cal, opts), nil
}
