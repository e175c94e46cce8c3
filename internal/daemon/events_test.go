package daemon

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperschedule/scrapers/internal/config"
	"github.com/hyperschedule/scrapers/internal/scraper"
)

func TestPublisherDisabled(t *testing.T) {
	p, err := NewPublisher(config.NATSConfig{})
	require.NoError(t, err)
	require.Nil(t, p)

	require.False(t, p.Enabled())
	require.NoError(t, p.PublishScrapeCompleted("run-1", &scraper.PassStats{School: "testschool"}))
	require.NotPanics(t, p.Close)
}
