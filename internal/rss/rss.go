// Package rss pulls articles from configured RSS feeds as an additional
// ingestion source next to the keyword search API.
package rss

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/mmcdole/gofeed"
	"gopkg.in/yaml.v3"

	"github.com/swen/newsbrief/internal/news"
)

// FeedsConfig is YAML config structure
// feeds:
//   - https://...
type FeedsConfig struct {
	Feeds []string `yaml:"feeds"`
}

// LoadFeeds reads RSS feeds list from YAML file
func LoadFeeds(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg FeedsConfig
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	return cfg.Feeds, nil
}

// FetchAllFeeds downloads and parses all feeds, returning their items as
// articles ready for ingestion. Feeds that fail to parse are logged and
// skipped so one broken feed cannot starve the rest.
func FetchAllFeeds(ctx context.Context, urls []string) ([]news.Article, error) {
	parser := gofeed.NewParser()
	var articles []news.Article
	successCount := 0

	for _, url := range urls {
		feed, err := parser.ParseURLWithContext(url, ctx)
		if err != nil {
			log.Printf("⚠️ Error parsing RSS %s: %v", url, err)
			continue
		}
		for _, item := range feed.Items {
			articles = append(articles, itemToArticle(item))
		}
		successCount++
		log.Printf("Loaded %d news from %s", len(feed.Items), url)
	}

	log.Printf("Processed RSS feeds: %d/%d ok", successCount, len(urls))
	return articles, nil
}

func itemToArticle(item *gofeed.Item) news.Article {
	published := time.Now()
	if item.PublishedParsed != nil {
		published = *item.PublishedParsed
	}
	article := news.Article{
		Title:       news.CleanHTML(item.Title),
		Link:        item.Link,
		Description: news.CleanHTML(item.Description),
		PublishedAt: published,
	}
	article.Publisher = news.PublisherFromLink(article)
	return article
}
