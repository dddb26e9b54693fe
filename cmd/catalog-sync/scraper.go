package main

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"pulse-token-board/internal/domain"
	"pulse-token-board/internal/fetch"
	"pulse-token-board/internal/logging"
)

// DefaultLaunchpadURL lists launchpad tokens, newest launch first.
const DefaultLaunchpadURL = "https://api.pump.tires/api/tokens"

// launchpadToken is one token as the launchpad API reports it.
type launchpadToken struct {
	Address         string             `json:"address"`
	Name            string             `json:"name"`
	Symbol          string             `json:"symbol"`
	ImageCID        string             `json:"image_cid"`
	Description     string             `json:"description"`
	Web             string             `json:"web"`
	Telegram        string             `json:"telegram"`
	Twitter         string             `json:"twitter"`
	IsLaunched      bool               `json:"is_launched"`
	LaunchTimestamp domain.UnixSeconds `json:"launch_timestamp"`
	Creator         *struct {
		Address string `json:"address"`
	} `json:"creator"`
}

type launchpadPage struct {
	Tokens []launchpadToken `json:"tokens"`
}

func (t launchpadToken) entry() domain.CatalogEntry {
	e := domain.CatalogEntry{
		Address:     domain.NormalizeAddress(t.Address),
		Name:        t.Name,
		Symbol:      t.Symbol,
		ImageCID:    t.ImageCID,
		Description: t.Description,
		Web:         t.Web,
		Telegram:    t.Telegram,
		Twitter:     t.Twitter,
		CreatedAt:   t.LaunchTimestamp,
	}
	if t.ImageCID != "" {
		e.ImageURL = domain.IPFSGateway + t.ImageCID
	}
	if t.Creator != nil {
		e.CreatorAddress = domain.NormalizeAddress(t.Creator.Address)
	}
	return e
}

// Scraper pages through the launchpad API until it returns an empty page.
type Scraper struct {
	BaseURL string
	Fetcher *fetch.Fetcher
	Delay   time.Duration
	Sleep   fetch.SleepFunc
	Logger  logrus.FieldLogger

	// OnPage is called after each non-empty page with the number of kept tokens.
	OnPage func(page, kept int)
}

// Scrape returns every launched token in API order.
func (s *Scraper) Scrape(ctx context.Context) ([]domain.CatalogEntry, error) {
	sleep := s.Sleep
	if sleep == nil {
		sleep = fetch.Sleep
	}
	log := logging.OrDiscard(s.Logger)

	var entries []domain.CatalogEntry
	for page := 1; ; page++ {
		batch, err := s.page(ctx, page)
		if err != nil {
			return entries, fmt.Errorf("fetch page %d: %w", page, err)
		}
		if len(batch) == 0 {
			log.WithField("pages", page-1).Info("No more tokens found")
			return entries, nil
		}

		kept := 0
		for _, t := range batch {
			if !t.IsLaunched {
				continue
			}
			entries = append(entries, t.entry())
			kept++
		}
		if s.OnPage != nil {
			s.OnPage(page, kept)
		}

		if err := sleep(ctx, s.Delay); err != nil {
			return entries, err
		}
	}
}

func (s *Scraper) page(ctx context.Context, page int) ([]launchpadToken, error) {
	u, err := url.Parse(s.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse launchpad url: %w", err)
	}
	q := u.Query()
	q.Set("filter", "launch_timestamp")
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()

	var out launchpadPage
	if err := s.Fetcher.JSON(ctx, fetch.Request{Name: "launchpad.tokens", URL: u.String()}, &out); err != nil {
		return nil, err
	}
	return out.Tokens, nil
}
