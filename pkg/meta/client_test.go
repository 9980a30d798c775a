package meta

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adpilot/campaign-cli/internal/model"
	"github.com/adpilot/campaign-cli/internal/resilience"
)

func TestCreateCampaign(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/create_campaign", r.URL.Path)

		var req CreateCampaignRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "spring-sale", req.CampaignName)
		assert.Equal(t, model.ObjectiveConversions, req.Objective)
		require.Len(t, req.AdSets, 1)
		assert.Equal(t, "adset-high", req.AdSets[0].Name)

		_ = json.NewEncoder(w).Encode(CreateCampaignResponse{
			CampaignID: "camp-99",
			AdSetIDs:   []string{"as-1"},
			Ads:        []AdResult{{AdID: "ad-1", CreativeID: "c1", Status: "active"}},
			Status:     "active",
		})
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithRetry(resilience.RetryConfig{MaxAttempts: 1}))

	resp, err := client.CreateCampaign(context.Background(), CreateCampaignRequest{
		CampaignName: "spring-sale",
		Objective:    model.ObjectiveConversions,
		DailyBudget:  33.33,
		BidStrategy:  model.BidCostCap,
		AdSets: []AdSetSpec{
			{Name: "adset-high", DailyBudget: 33.33, CreativeIDs: []string{"c1"}},
		},
		StartDate: "2026-09-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "camp-99", resp.CampaignID)
	require.Len(t, resp.Ads, 1)
	assert.Equal(t, "ad-1", resp.Ads[0].AdID)
}

func TestCreateCampaign_RateLimiterAllowsBurst(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(CreateCampaignResponse{CampaignID: "camp-1", Status: "active"})
	}))
	defer srv.Close()

	client := NewClient(
		WithBaseURL(srv.URL),
		WithRetry(resilience.RetryConfig{MaxAttempts: 1}),
		WithRateLimit(100, 5),
	)

	for i := 0; i < 5; i++ {
		_, err := client.CreateCampaign(context.Background(), CreateCampaignRequest{CampaignName: "x"})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(5), calls.Load())
}

func TestCreateCampaign_CanceledContext(t *testing.T) {
	client := NewClient(WithRateLimit(0.001, 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.CreateCampaign(ctx, CreateCampaignRequest{CampaignName: "x"})
	assert.Error(t, err)
}
